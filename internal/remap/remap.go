// Package remap maps symbolic names through the first matching rename rule.
package remap

import (
	"regexp"
	"strings"

	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/rs/zerolog"
)

// resourceSuffix stands in for the file name while a resource directory is
// matched as if it were a class name.
const resourceSuffix = "RESOURCE"

// arrayForName matches the binary names Class.forName accepts for arrays of
// objects, such as "[Lcom.foo.Bar;".
var arrayForName = regexp.MustCompile(`\A\[L[\p{L}\p{Nd}\p{Nl}\p{Sc}\p{Pc}\p{Mn}\p{Mc}.]+?;\z`)

// Remapper rewrites class names, descriptors, resource paths and string
// constants. It is built once per run and caches every answer; it is not
// safe for concurrent use.
type Remapper struct {
	trie   *pattern.Trie
	types  map[string]string
	paths  map[string]string
	values map[string]string
	log    zerolog.Logger
}

// New compiles the Rename rules among rules. Other kinds are ignored.
func New(rules []pattern.Rule, log zerolog.Logger) (*Remapper, error) {
	ws, err := pattern.CompileAll(rules, pattern.Rename)
	if err != nil {
		return nil, err
	}
	return &Remapper{
		trie:   pattern.NewTrie(ws),
		types:  make(map[string]string),
		paths:  make(map[string]string),
		values: make(map[string]string),
		log:    log,
	}, nil
}

func (r *Remapper) replace(value string) string {
	for _, w := range r.trie.Lookup(value) {
		if s, ok := w.Replace(value); ok {
			return s
		}
	}
	return value
}

// MapType maps an internal class name. Unmatched names are returned as is.
func (r *Remapper) MapType(name string) string {
	if s, ok := r.types[name]; ok {
		return s
	}
	s := r.replace(name)
	r.types[name] = s
	return s
}

// MapDesc maps every class name inside a descriptor or generic signature.
func (r *Remapper) MapDesc(desc string) string {
	return classfile.MapSignature(desc, r.MapType)
}

// MapPath maps the directory of a resource path as though it were a
// package, keeping the file name. A leading "/" is preserved.
func (r *Remapper) MapPath(path string) string {
	if s, ok := r.paths[path]; ok {
		return s
	}
	dir, file := "", path
	if slash := strings.LastIndexByte(path, '/'); slash >= 0 {
		dir, file = path[:slash+1], path[slash+1:]
	}
	s := dir + resourceSuffix
	absolute := strings.HasPrefix(s, "/")
	if absolute {
		s = s[1:]
	}
	s = r.replace(s)
	if absolute {
		s = "/" + s
	}
	if !strings.HasSuffix(s, resourceSuffix) {
		r.paths[path] = path
		return path
	}
	s = s[:len(s)-len(resourceSuffix)] + file
	r.paths[path] = s
	return s
}

// MapValue maps a string constant that may hold a class name, a resource
// path, or a Class.forName array name. Strings mixing dots and slashes are
// left alone unless they map as a path.
func (r *Remapper) MapValue(value string) string {
	if s, ok := r.values[value]; ok {
		return s
	}
	s := r.mapValue(value)
	r.values[value] = s
	if s != value {
		r.log.Debug().Str("from", value).Str("to", s).Msg("Changed string")
	}
	return s
}

func (r *Remapper) mapValue(value string) string {
	if IsArrayForName(value) {
		desc := strings.ReplaceAll(value, ".", "/")
		if mapped := r.MapDesc(desc); mapped != desc {
			return strings.ReplaceAll(mapped, "/", ".")
		}
		return value
	}
	s := r.MapPath(value)
	if s != value {
		return s
	}
	hasDot := strings.Contains(s, ".")
	hasSlash := strings.Contains(s, "/")
	switch {
	case hasDot && hasSlash:
		return s
	case hasDot:
		return strings.ReplaceAll(r.replace(strings.ReplaceAll(s, ".", "/")), "/", ".")
	default:
		return r.replace(s)
	}
}

// MapString implements classfile.Remapper.
func (r *Remapper) MapString(value string) string {
	return r.MapValue(value)
}

// MapDotted maps a class name written with dots, as in manifests and
// service files.
func (r *Remapper) MapDotted(name string) string {
	return strings.ReplaceAll(r.MapType(strings.ReplaceAll(name, ".", "/")), "/", ".")
}

// IsArrayForName reports whether value looks like "[Lcom.foo.Bar;".
func IsArrayForName(value string) bool {
	return arrayForName.MatchString(value)
}

var _ classfile.Remapper = (*Remapper)(nil)
