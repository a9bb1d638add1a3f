// Package archivetest writes and reads small jars for tests.
package archivetest

import (
	"io"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// Stamp is the modification time given to every entry written by Write.
var Stamp = time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC)

// File is a name and its contents.
type File struct {
	Name string
	Data string
}

// Write stores files at path in the given order, duplicates included.
func Write(t testing.TB, fs billy.Filesystem, path string, files ...File) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, file := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: file.Name, Method: zip.Deflate, Modified: Stamp})
		require.NoError(t, err)
		if file.Data != "" {
			_, err = io.WriteString(w, file.Data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

// Read returns the entries at path in archive order.
func Read(t testing.TB, fs billy.Filesystem, path string) []File {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err)
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := zip.NewReader(f, info.Size())
	require.NoError(t, err)
	var out []File
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out = append(out, File{Name: zf.Name, Data: string(data)})
	}
	return out
}

// Names returns just the entry names at path.
func Names(t testing.TB, fs billy.Filesystem, path string) []string {
	t.Helper()
	var names []string
	for _, f := range Read(t, fs, path) {
		names = append(names, f.Name)
	}
	return names
}
