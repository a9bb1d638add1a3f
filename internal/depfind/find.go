package depfind

import (
	"fmt"
	"io"
	"sort"

	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/go-git/go-billy/v5"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/rs/zerolog"
)

// Level selects what a dependency edge connects.
type Level int

const (
	LevelClass Level = iota
	LevelJar
)

func (l Level) String() string {
	if l == LevelJar {
		return "jar"
	}
	return "class"
}

// ParseLevel accepts "class" or "jar".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "class":
		return LevelClass, nil
	case "jar":
		return LevelJar, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

// Dep is one reported edge.
type Dep struct {
	From string
	To   string
}

// Find reports, for every class on cp1, each class it references that is
// defined on cp2. An empty cp2 means cp1. At LevelJar edges join the
// classpath elements instead, and an element's references to itself are
// not reported. The result is sorted and free of duplicates.
func Find(fs billy.Filesystem, level Level, cp1, cp2 string, log zerolog.Logger) ([]Dep, error) {
	if cp2 == "" {
		cp2 = cp1
	}
	defined := make(map[string]string) // class → source
	err := walkClasspath(fs, cp2, func(c class) error {
		f, err := classfile.Parse(c.data)
		if err != nil {
			log.Debug().Err(err).Str("source", c.source).Msg("Skipping unreadable class")
			return nil
		}
		if _, dup := defined[f.Name()]; !dup {
			defined[f.Name()] = c.source
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[Dep]struct{})
	err = walkClasspath(fs, cp1, func(c class) error {
		f, err := classfile.Parse(c.data)
		if err != nil {
			log.Debug().Err(err).Str("source", c.source).Msg("Skipping unreadable class")
			return nil
		}
		self := f.Name()
		f.Walk(classfile.Funcs{Type: func(name string) string {
			source, ok := defined[name]
			if !ok || name == self {
				return name
			}
			d := Dep{From: dotted(self), To: dotted(name)}
			if level == LevelJar {
				if source == c.source {
					return name
				}
				d = Dep{From: c.source, To: source}
			}
			seen[d] = struct{}{}
			return name
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}

	deps := make([]Dep, 0, len(seen))
	for d := range seen {
		deps = append(deps, d)
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].From != deps[j].From {
			return deps[i].From < deps[j].From
		}
		return deps[i].To < deps[j].To
	})
	return deps, nil
}

// WriteText prints one "from -> to" line per edge.
func WriteText(w io.Writer, deps []Dep) error {
	for _, d := range deps {
		if _, err := fmt.Fprintf(w, "%s -> %s\n", d.From, d.To); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON prints {"level": ..., "deps": [{"from": ..., "to": ...}]}.
func WriteJSON(w io.Writer, level Level, deps []Dep) error {
	list := make([]any, len(deps))
	for i, d := range deps {
		list[i] = map[string]any{"from": d.From, "to": d.To}
	}
	doc := map[string]any{"level": level.String(), "deps": list}
	_, err := io.WriteString(w, oj.JSON(doc, &ojg.Options{Indent: 2, Sort: true})+"\n")
	return err
}
