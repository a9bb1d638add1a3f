package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrInvalidResult  = errors.New("invalid result")
)

// packageInfo is not a legal identifier but may end a pattern or a name.
const packageInfo = "package-info"

// part is one element of a replacement template: a literal, or a reference
// to a capture group when ref >= 0.
type part struct {
	lit string
	ref int
}

// Wildcard is a compiled glob over slash-separated internal names.
// "*" matches one segment, "**" one or more segments.
type Wildcard struct {
	re     *regexp.Regexp
	source string
	prefix string
	index  int
	count  int
	parts  []part
}

// Compile builds a Wildcard from a slashed pattern and a replacement
// template in which "@N" refers to the N-th wildcard of the pattern.
// All validation happens here; matching never fails.
func Compile(pattern, result string, index int) (*Wildcard, error) {
	if pattern == "**" {
		return nil, fmt.Errorf("%w: '**' is not a valid pattern", ErrInvalidPattern)
	}
	if !identifierChars(pattern, "/*-") {
		return nil, fmt.Errorf("%w: not a valid package pattern: %s", ErrInvalidPattern, pattern)
	}
	if strings.Contains(pattern, "***") {
		return nil, fmt.Errorf("%w: the sequence '***' is invalid in a package pattern", ErrInvalidPattern)
	}

	re, err := regexp.Compile(`\A` + translate(pattern) + `\z`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, pattern, err)
	}

	prefix := pattern
	if i := strings.IndexByte(pattern, '*'); i >= 0 {
		prefix = pattern[:i]
	}

	parts, highest, err := parseResult(result)
	if err != nil {
		return nil, err
	}
	count := re.NumSubexp()
	if highest > count {
		return nil, fmt.Errorf("%w: result includes impossible placeholder \"@%d\": %s", ErrInvalidResult, highest, result)
	}

	return &Wildcard{
		re:     re,
		source: pattern,
		prefix: prefix,
		index:  index,
		count:  count,
		parts:  parts,
	}, nil
}

// translate turns the glob into a regular expression body. A trailing "**"
// is greedy: with nothing after it a reluctant group only adds backtracking.
func translate(pattern string) string {
	var tokens []string
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, regexp.QuoteMeta(lit.String()))
			lit.Reset()
		}
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' {
			lit.WriteByte(pattern[i])
			continue
		}
		flush()
		if i+1 < len(pattern) && pattern[i+1] == '*' {
			tokens = append(tokens, `(.+?)`)
			i++
		} else {
			tokens = append(tokens, `([^/]+)`)
		}
	}
	flush()
	if n := len(tokens); n > 0 && tokens[n-1] == `(.+?)` {
		tokens[n-1] = `(.+)`
	}
	return strings.Join(tokens, "")
}

func parseResult(result string) ([]part, int, error) {
	var parts []part
	highest := 0
	for {
		at := strings.IndexByte(result, '@')
		if at < 0 {
			if result != "" {
				parts = append(parts, part{lit: strings.ReplaceAll(result, ".", "/"), ref: -1})
			}
			return parts, highest, nil
		}
		if at > 0 {
			parts = append(parts, part{lit: strings.ReplaceAll(result[:at], ".", "/"), ref: -1})
		}
		end := at + 1
		for end < len(result) && result[end] >= '0' && result[end] <= '9' {
			end++
		}
		if end == at+1 {
			return nil, 0, fmt.Errorf("%w: '@' not followed by a digit: %s", ErrInvalidResult, result)
		}
		n, err := strconv.Atoi(result[at+1 : end])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: placeholder %q: %v", ErrInvalidResult, result[at:end], err)
		}
		if n > highest {
			highest = n
		}
		parts = append(parts, part{ref: n})
		result = result[end:]
	}
}

// Prefix is the literal text before the first wildcard. Used for indexing only.
func (w *Wildcard) Prefix() string { return w.prefix }

// Index is the declaration order of the rule this wildcard came from.
func (w *Wildcard) Index() int { return w.index }

// Count is the number of capture groups.
func (w *Wildcard) Count() int { return w.count }

func (w *Wildcard) String() string { return w.source }

// Matches reports whether value is fully matched by the pattern.
func (w *Wildcard) Matches(value string) bool {
	return w.submatch(value) != nil
}

// Replace renders the replacement template against value. ok is false when
// value does not match.
func (w *Wildcard) Replace(value string) (replaced string, ok bool) {
	m := w.submatch(value)
	if m == nil {
		return "", false
	}
	var sb strings.Builder
	for _, p := range w.parts {
		if p.ref >= 0 {
			sb.WriteString(m[p.ref])
		} else {
			sb.WriteString(p.lit)
		}
	}
	return sb.String(), true
}

func (w *Wildcard) submatch(value string) []string {
	m := w.re.FindStringSubmatch(value)
	if m == nil || !identifierChars(value, "/-") {
		return nil
	}
	return m
}

func identifierChars(expr, extra string) bool {
	expr = strings.TrimSuffix(expr, packageInfo)
	for _, r := range expr {
		if strings.ContainsRune(extra, r) {
			continue
		}
		if !IsIdentifierPart(r) {
			return false
		}
	}
	return true
}

// IsIdentifierPart reports whether r may appear in a Java identifier.
func IsIdentifierPart(r rune) bool {
	switch {
	case r == '_' || r == '$':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r <= 0x08, r >= 0x0e && r <= 0x1b, r >= 0x7f && r <= 0x9f:
		return true
	case r < 0x80:
		return false
	}
	return unicode.IsLetter(r) ||
		unicode.In(r, unicode.Nd, unicode.Nl, unicode.Sc, unicode.Pc, unicode.Mn, unicode.Mc, unicode.Cf)
}
