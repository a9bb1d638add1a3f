package repack

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/agentic-research/jarjar/internal/remap"
	"github.com/rs/zerolog"
)

const servicesDir = "META-INF/services/"

// zapStage drops classes matching a Zap rule.
type zapStage struct {
	wildcards []*pattern.Wildcard
}

func (s *zapStage) Process(e *archive.Entry) (bool, error) {
	if !e.IsClass() {
		return true, nil
	}
	_, rest := archive.Split(e.Name)
	name := strings.TrimSuffix(rest, ".class")
	for _, w := range s.wildcards {
		if w.Matches(name) {
			return false, nil
		}
	}
	return true, nil
}

// classStage rewrites every symbolic reference of a class and renames the
// entry after the class's new name.
type classStage struct {
	remapper *remap.Remapper
	log      zerolog.Logger
}

func (s *classStage) Process(e *archive.Entry) (bool, error) {
	if !e.IsClass() {
		return true, nil
	}
	prefix, rest := archive.Split(e.Name)
	data, name, err := classfile.Rewrite(e.Data, s.remapper)
	if err != nil {
		// Not a class we can read: rename it by its path and keep the bytes.
		s.log.Debug().Err(err).Str("entry", e.Name).Msg("Copying unreadable class")
		name = s.remapper.MapType(strings.TrimSuffix(rest, ".class"))
	} else {
		e.Data = data
	}
	e.Name = prefix + name + ".class"
	return true, nil
}

// resourceStage moves non-class entries along with their package.
type resourceStage struct {
	remapper *remap.Remapper
}

func (s *resourceStage) Process(e *archive.Entry) (bool, error) {
	if e.IsClass() || e.Name == manifestPath {
		return true, nil
	}
	prefix, rest := archive.Split(e.Name)
	if rest != "" {
		e.Name = prefix + s.remapper.MapPath(rest)
	}
	return true, nil
}

// serviceStage renames META-INF/services provider files and the provider
// classes listed inside them.
type serviceStage struct {
	remapper *remap.Remapper
}

func (s *serviceStage) Process(e *archive.Entry) (bool, error) {
	prefix, rest := archive.Split(e.Name)
	service, ok := strings.CutPrefix(rest, servicesDir)
	if !ok || service == "" || e.IsDir() {
		return true, nil
	}
	e.Name = prefix + servicesDir + s.remapper.MapDotted(service)
	e.Data = rewriteProviders(e.Data, s.remapper.MapDotted)
	return true, nil
}

// rewriteProviders maps each provider class name, keeping comments,
// indentation and line endings.
func rewriteProviders(data []byte, mapName func(string) string) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Split(scanLinesKeepEOL)
	for sc.Scan() {
		l := sc.Text()
		body := strings.TrimRight(l, "\r\n")
		eol := l[len(body):]
		code, comment := body, ""
		if i := strings.IndexByte(body, '#'); i >= 0 {
			code, comment = body[:i], body[i:]
		}
		name := strings.TrimSpace(code)
		if name != "" {
			start := strings.Index(code, name)
			code = code[:start] + mapName(name) + code[start+len(name):]
		}
		out.WriteString(code)
		out.WriteString(comment)
		out.WriteString(eol)
	}
	return out.Bytes()
}

func scanLinesKeepEOL(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
