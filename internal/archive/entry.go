// Package archive streams jar entries through a processor and publishes a
// deterministic, deduplicated archive.
package archive

import (
	"strings"
	"time"
)

// VersionsDir holds multi-release overlay copies of classes and resources.
const VersionsDir = "META-INF/versions/"

// Entry is one archive member while a processor owns it. Processors may
// rewrite Name and Data in place.
type Entry struct {
	Name string
	Time time.Time
	Data []byte
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return strings.HasSuffix(e.Name, "/") }

// IsClass reports whether the entry is a compiled class.
func (e *Entry) IsClass() bool { return strings.HasSuffix(e.Name, ".class") }

// Processor transforms one entry. Returning false drops it from the output.
type Processor interface {
	Process(e *Entry) (bool, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(e *Entry) (bool, error)

func (f ProcessorFunc) Process(e *Entry) (bool, error) { return f(e) }

// Chain runs processors in order and stops at the first one that drops the
// entry or fails. Later processors see any name change made earlier.
type Chain []Processor

func (c Chain) Process(e *Entry) (bool, error) {
	for _, p := range c {
		keep, err := p.Process(e)
		if err != nil || !keep {
			return false, err
		}
	}
	return true, nil
}

// Split separates a multi-release overlay prefix such as
// "META-INF/versions/11/" from the rest of name. prefix is empty when name
// is not inside an overlay.
func Split(name string) (prefix, rest string) {
	after, ok := strings.CutPrefix(name, VersionsDir)
	if !ok {
		return "", name
	}
	digits := 0
	for digits < len(after) && after[digits] >= '0' && after[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits == len(after) || after[digits] != '/' {
		return "", name
	}
	n := len(VersionsDir) + digits + 1
	return name[:n], name[n:]
}
