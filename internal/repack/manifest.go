package repack

import (
	"bytes"
	"strings"

	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/agentic-research/jarjar/internal/remap"
)

const (
	manifestPath = "META-INF/MANIFEST.MF"
	mainClass    = "Main-Class"
	// manifest lines are at most 72 bytes, continuation lines start with a space
	manifestWidth = 72
)

// manifestStage drops the manifest or rewrites its Main-Class attribute.
// Every other line is left byte for byte.
type manifestStage struct {
	remapper *remap.Remapper
	skip     bool
}

func (s *manifestStage) Process(e *archive.Entry) (bool, error) {
	if e.Name != manifestPath {
		return true, nil
	}
	if s.skip {
		return false, nil
	}
	e.Data = rewriteMainClass(e.Data, s.remapper.MapDotted)
	return true, nil
}

func rewriteMainClass(data []byte, mapName func(string) string) []byte {
	lines := splitLines(string(data))
	for i := 0; i < len(lines); i++ {
		if lines[i].text == "" {
			break // end of the main section
		}
		key, value, ok := strings.Cut(lines[i].text, ":")
		if !ok || !strings.EqualFold(key, mainClass) {
			continue
		}
		end := i + 1
		for end < len(lines) && strings.HasPrefix(lines[end].text, " ") {
			value += lines[end].text[1:]
			end++
		}
		value = strings.TrimPrefix(value, " ")
		mapped := mapName(value)
		if mapped == value {
			return data
		}
		eol := lines[i].eol
		if eol == "" {
			eol = "\r\n"
		}
		var folded []line
		for _, text := range fold(key+": "+mapped) {
			folded = append(folded, line{text: text, eol: eol})
		}
		if lines[end-1].eol == "" {
			folded[len(folded)-1].eol = ""
		}
		lines = append(lines[:i], append(folded, lines[end:]...)...)
		var buf bytes.Buffer
		for _, l := range lines {
			buf.WriteString(l.text)
			buf.WriteString(l.eol)
		}
		return buf.Bytes()
	}
	return data
}

type line struct {
	text string
	eol  string
}

func splitLines(s string) []line {
	var out []line
	for s != "" {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			out = append(out, line{text: s})
			break
		}
		n := 1
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			n = 2
		}
		out = append(out, line{text: s[:i], eol: s[i : i+n]})
		s = s[i+n:]
	}
	return out
}

// fold splits a header line into manifest-width pieces.
func fold(s string) []string {
	var out []string
	for len(s) > manifestWidth {
		cut := manifestWidth
		// never split a UTF-8 sequence
		for cut > 0 && s[cut]&0xC0 == 0x80 {
			cut--
		}
		out = append(out, s[:cut])
		s = " " + s[cut:]
	}
	return append(out, s)
}
