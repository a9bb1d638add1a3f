package keep

import (
	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/rs/zerolog"
)

// Stripper is the deletion stage. It runs over the rewritten archive and
// drops the excluded classes, including their multi-release copies.
type Stripper struct {
	drop map[string]struct{}
	log  zerolog.Logger
}

// NewStripper translates excludes, given as original class names, into
// final entry names through renames (original entry name → final entry
// name). Renames are compared by overlay remainder, so a class that only
// exists under META-INF/versions/ still follows its rename.
func NewStripper(excludes []string, renames map[string]string, log zerolog.Logger) *Stripper {
	rests := make(map[string]string, len(renames))
	for from, to := range renames {
		_, fromRest := archive.Split(from)
		_, toRest := archive.Split(to)
		rests[fromRest] = toRest
	}
	drop := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		entry := name + ".class"
		if renamed, ok := rests[entry]; ok {
			entry = renamed
		}
		drop[entry] = struct{}{}
	}
	return &Stripper{drop: drop, log: log}
}

// Len is the number of class entries that will be dropped.
func (s *Stripper) Len() int { return len(s.drop) }

func (s *Stripper) Process(e *archive.Entry) (bool, error) {
	_, rest := archive.Split(e.Name)
	if _, ok := s.drop[rest]; ok {
		s.log.Debug().Str("entry", e.Name).Msg("Excluding")
		return false, nil
	}
	return true, nil
}
