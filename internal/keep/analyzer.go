// Package keep finds the classes that cannot be reached from the keep roots
// and removes them from a finished archive.
package keep

import (
	"errors"
	"strings"

	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/agentic-research/jarjar/internal/graph"
	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/agentic-research/jarjar/internal/remap"
	"github.com/rs/zerolog"
)

var ErrReentrant = errors.New("keep analyzer is not reentrant")

// Analyzer is the build phase. As an archive.Processor it never changes or
// drops entries; it records what every class references. Call Excludes once
// the whole archive has been processed.
type Analyzer struct {
	wildcards []*pattern.Wildcard
	graph     *graph.Graph
	roots     []string
	rootSet   map[string]struct{}
	overlaid  map[string]struct{}
	log       zerolog.Logger
}

// NewAnalyzer compiles the Keep rules among rules.
func NewAnalyzer(rules []pattern.Rule, log zerolog.Logger) (*Analyzer, error) {
	ws, err := pattern.CompileAll(rules, pattern.Keep)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		wildcards: ws,
		graph:     graph.New(),
		rootSet:   make(map[string]struct{}),
		overlaid:  make(map[string]struct{}),
		log:       log,
	}, nil
}

// Process records the references of a class entry.
func (a *Analyzer) Process(e *archive.Entry) (bool, error) {
	if !e.IsClass() {
		return true, nil
	}
	prefix, rest := archive.Split(e.Name)
	name := strings.TrimSuffix(rest, ".class")

	for _, w := range a.wildcards {
		if w.Matches(name) {
			a.addRoot(name)
			break
		}
	}

	c := &collector{}
	if err := c.collect(e.Data); err != nil {
		if errors.Is(err, ErrReentrant) {
			return false, err
		}
		a.log.Debug().Err(err).Str("entry", e.Name).Msg("Error reading class")
		return true, nil
	}

	// Overlay copies share the base class's node.
	_, seen := a.overlaid[name]
	switch {
	case prefix != "":
		a.overlaid[name] = struct{}{}
		a.graph.Merge(name, c.deps)
	case seen:
		a.graph.Merge(name, c.deps)
	default:
		a.graph.Set(name, c.deps)
	}
	return true, nil
}

func (a *Analyzer) addRoot(name string) {
	if _, ok := a.rootSet[name]; ok {
		return
	}
	a.rootSet[name] = struct{}{}
	a.roots = append(a.roots, name)
}

// Roots lists the observed classes matching a Keep rule.
func (a *Analyzer) Roots() []string { return a.roots }

// Graph exposes the dependency graph built so far.
func (a *Analyzer) Graph() *graph.Graph { return a.graph }

// Excludes returns every observed class not reachable from the roots, under
// its original name. It may be called any number of times.
func (a *Analyzer) Excludes() []string {
	return a.graph.Unreachable(a.roots)
}

// collector gathers the references of a single class. Each one serves
// exactly one walk.
type collector struct {
	used bool
	deps []string
}

func (c *collector) collect(data []byte) error {
	if c.used {
		return ErrReentrant
	}
	c.used = true
	_, err := classfile.Walk(data, c)
	return err
}

func (c *collector) add(name string) string {
	if !strings.HasPrefix(name, "java/") && !strings.HasPrefix(name, "javax/") {
		c.deps = append(c.deps, name)
	}
	return name
}

func (c *collector) MapType(name string) string {
	return c.add(name)
}

// MapString treats strings that look like Class.forName arguments as
// references.
func (c *collector) MapString(value string) string {
	switch {
	case remap.IsArrayForName(value):
		classfile.MapSignature(strings.ReplaceAll(value, ".", "/"), c.add)
	case isForName(value):
		c.add(strings.ReplaceAll(value, ".", "/"))
	}
	return value
}

func isForName(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r != '.' && !pattern.IsIdentifierPart(r) {
			return false
		}
	}
	return true
}
