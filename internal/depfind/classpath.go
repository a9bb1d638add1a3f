// Package depfind reports class-level dependencies between classpaths and
// dumps the string constants of compiled classes.
package depfind

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// class is one compiled class found on a classpath.
type class struct {
	source string // jar file or class directory it came from
	data   []byte
}

// walkClasspath visits every class of every element of cp, in classpath
// order. Elements are jar files or directories of class files.
func walkClasspath(fs billy.Filesystem, cp string, fn func(c class) error) error {
	for _, elem := range filepath.SplitList(cp) {
		if elem == "" {
			continue
		}
		info, err := fs.Stat(elem)
		if err != nil {
			return fmt.Errorf("classpath element %s: %w", elem, err)
		}
		if !info.IsDir() {
			err = archive.Walk(fs, elem, func(e *archive.Entry) error {
				if !e.IsClass() {
					return nil
				}
				return fn(class{source: elem, data: e.Data})
			})
		} else {
			err = util.Walk(fs, elem, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() || !strings.HasSuffix(path, ".class") {
					return nil
				}
				data, err := util.ReadFile(fs, path)
				if err != nil {
					return err
				}
				return fn(class{source: elem, data: data})
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func dotted(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
