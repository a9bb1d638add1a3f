package archive

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

var ErrDuplicateEntry = errors.New("duplicate jar entries")

// Walk calls fn for every entry of the archive at path, in archive order.
func Walk(fs billy.Filesystem, path string, fn func(e *Entry) error) error {
	zr, closer, err := open(fs, path)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, f := range zr.File {
		e, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func open(fs billy.Filesystem, path string) (*zip.Reader, io.Closer, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return zr, f, nil
}

func readEntry(f *zip.File) (*Entry, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return &Entry{Name: f.Name, Time: f.Modified, Data: data}, nil
}

func writeEntry(zw *zip.Writer, e *Entry) error {
	hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: e.Time}
	if e.IsDir() {
		hdr.Method = zip.Store
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return nil
	}
	_, err = w.Write(e.Data)
	return err
}

// Run reads the archive at from, offers every entry to proc and writes the
// survivors to to. Two files mapping to the same name fail the run with
// ErrDuplicateEntry; a repeated directory is dropped. The published archive
// is sorted by name and has no empty directories. Output goes to temporary
// files in the destination directory and is renamed into place only on
// success, so a failed run leaves to untouched.
func Run(fs billy.Filesystem, from, to string, proc Processor, log zerolog.Logger) (err error) {
	dir := filepath.Dir(to)
	staging, err := fs.TempFile(dir, ".jarjar-staging-")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	stagingName := staging.Name()
	defer fs.Remove(stagingName)

	if err := pipeline(fs, from, staging, proc, log); err != nil {
		staging.Close()
		return err
	}
	if err := staging.Close(); err != nil {
		return err
	}

	out, err := fs.TempFile(dir, ".jarjar-out-")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	outName := out.Name()
	defer func() {
		if err != nil {
			fs.Remove(outName)
		}
	}()
	if err := compact(fs, stagingName, out, log); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := fs.Rename(outName, to); err != nil {
		return fmt.Errorf("publish %s: %w", to, err)
	}
	return nil
}

func pipeline(fs billy.Filesystem, from string, w io.Writer, proc Processor, log zerolog.Logger) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]struct{})
	err := Walk(fs, from, func(e *Entry) error {
		original := e.Name
		keep, err := proc.Process(e)
		if err != nil {
			return fmt.Errorf("%s: %w", original, err)
		}
		if !keep {
			return nil
		}
		if _, dup := seen[e.Name]; dup {
			if e.IsDir() {
				log.Debug().Str("entry", e.Name).Msg("Skipping duplicate directory")
				return nil
			}
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Name)
		}
		seen[e.Name] = struct{}{}
		return writeEntry(zw, e)
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

// compact copies the staging archive sorted by name, dropping directories
// with no surviving descendant.
func compact(fs billy.Filesystem, staging string, w io.Writer, log zerolog.Logger) error {
	zr, closer, err := open(fs, staging)
	if err != nil {
		return err
	}
	defer closer.Close()

	files := append([]*zip.File(nil), zr.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	// Descendants of a directory sort directly after it, so a directory is
	// empty when the next surviving name is not inside it.
	keep := make([]bool, len(files))
	next := ""
	for i := len(files) - 1; i >= 0; i-- {
		name := files[i].Name
		if strings.HasSuffix(name, "/") && !strings.HasPrefix(next, name) {
			log.Debug().Str("entry", name).Msg("Removing empty directory")
			continue
		}
		keep[i] = true
		next = name
	}

	zw := zip.NewWriter(w)
	for i, f := range files {
		if !keep[i] {
			continue
		}
		e, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if err := writeEntry(zw, e); err != nil {
			return err
		}
	}
	return zw.Close()
}
