// Package pattern compiles repackaging rules into anchored wildcard matchers
// and indexes them by literal prefix.
package pattern

import (
	"fmt"
	"strings"
)

// Kind tags a rule with the directive it came from.
type Kind int

const (
	Rename Kind = iota
	Zap
	Keep
)

func (k Kind) String() string {
	switch k {
	case Rename:
		return "rule"
	case Zap:
		return "zap"
	case Keep:
		return "keep"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a rules-file keyword to its Kind.
func ParseKind(keyword string) (Kind, error) {
	switch keyword {
	case "rule":
		return Rename, nil
	case "zap":
		return Zap, nil
	case "keep":
		return Keep, nil
	default:
		return 0, fmt.Errorf("unknown directive %q", keyword)
	}
}

// Rule is one parsed directive. Index is the declaration order and breaks
// ties between overlapping patterns.
type Rule struct {
	Kind    Kind
	Pattern string // dotted or slashed class pattern
	Result  string // Rename only
	Index   int
}

// Compile builds the matcher for r. Dots in the pattern are treated as
// package separators.
func (r Rule) Compile() (*Wildcard, error) {
	result := ""
	if r.Kind == Rename {
		result = r.Result
	}
	w, err := Compile(strings.ReplaceAll(r.Pattern, ".", "/"), result, r.Index)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Kind, r.Pattern, err)
	}
	return w, nil
}

// CompileAll compiles every rule of the given kind, keeping declaration order.
func CompileAll(rules []Rule, kind Kind) ([]*Wildcard, error) {
	var out []*Wildcard
	for _, r := range rules {
		if r.Kind != kind {
			continue
		}
		w, err := r.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Filter returns the rules of one kind in declaration order.
func Filter(rules []Rule, kind Kind) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}
