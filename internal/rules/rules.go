// Package rules reads rename, zap and keep directives from a rules file.
//
// The plain form has one directive per line:
//
//	rule com.example.** shaded.@1
//	zap com.example.internal.**
//	keep com.example.Main
//
// Files ending in .hcl use blocks instead:
//
//	rule "com.example.**" { result = "shaded.@1" }
//	zap "com.example.internal.**" {}
//	keep "com.example.Main" {}
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/go-git/go-billy/v5"
)

var ErrSyntax = errors.New("syntax error")

// ParseFile reads the rules file at path, choosing the format by extension.
func ParseFile(fs billy.Filesystem, path string) ([]pattern.Rule, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".hcl") {
		src, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read rules: %w", err)
		}
		return ParseHCL(src, path)
	}
	return Parse(f, path)
}

// Parse reads plain directives. name is used in error messages. Every
// pattern is compiled so mistakes surface before any archive is opened.
func Parse(r io.Reader, name string) ([]pattern.Rule, error) {
	var out []pattern.Rule
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rule, err := parseDirective(fields, len(out))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		out = append(out, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func parseDirective(fields []string, index int) (pattern.Rule, error) {
	kind, err := pattern.ParseKind(fields[0])
	if err != nil {
		return pattern.Rule{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	want := 2
	if kind == pattern.Rename {
		want = 3
	}
	if len(fields) != want {
		return pattern.Rule{}, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrSyntax, kind, want-1, len(fields)-1)
	}
	rule := pattern.Rule{Kind: kind, Pattern: fields[1], Index: index}
	if kind == pattern.Rename {
		rule.Result = fields[2]
	}
	return rule, validate(rule)
}

func validate(r pattern.Rule) error {
	_, err := r.Compile()
	return err
}
