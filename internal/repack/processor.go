// Package repack wires the rename, zap and keep rules into the stage list
// that turns one jar into its repackaged form.
package repack

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/agentic-research/jarjar/internal/keep"
	"github.com/agentic-research/jarjar/internal/pattern"
	"github.com/agentic-research/jarjar/internal/remap"
	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
)

// Options are the switches that do not come from the rules file.
type Options struct {
	// SkipManifest drops META-INF/MANIFEST.MF instead of rewriting it.
	SkipManifest bool
}

// Processor is the rewrite pass. It is an archive.Processor that records
// every rename it causes; Strip runs the deletion pass afterwards.
type Processor struct {
	remapper *remap.Remapper
	analyzer *keep.Analyzer // nil without Keep rules
	chain    archive.Chain
	renames  map[string]string
	log      zerolog.Logger
}

// New compiles rules and builds the stage list
// manifest → keep → zap → class → resource → service.
func New(rules []pattern.Rule, opts Options, log zerolog.Logger) (*Processor, error) {
	rm, err := remap.New(rules, log)
	if err != nil {
		return nil, err
	}
	zaps, err := pattern.CompileAll(rules, pattern.Zap)
	if err != nil {
		return nil, err
	}
	p := &Processor{remapper: rm, renames: make(map[string]string), log: log}

	p.chain = append(p.chain, &manifestStage{remapper: rm, skip: opts.SkipManifest})
	if len(pattern.Filter(rules, pattern.Keep)) > 0 {
		if p.analyzer, err = keep.NewAnalyzer(rules, log); err != nil {
			return nil, err
		}
		p.chain = append(p.chain, p.analyzer)
	}
	p.chain = append(p.chain,
		&zapStage{wildcards: zaps},
		&classStage{remapper: rm, log: log},
		&resourceStage{remapper: rm},
		&serviceStage{remapper: rm},
	)
	return p, nil
}

func (p *Processor) Process(e *archive.Entry) (bool, error) {
	name := e.Name
	keepIt, err := p.chain.Process(e)
	if err != nil {
		return false, err
	}
	if !keepIt {
		p.log.Debug().Str("entry", name).Msg("Removed")
		return false, nil
	}
	if e.Name != name {
		p.renames[name] = e.Name
		p.log.Debug().Str("from", name).Str("to", e.Name).Msg("Renamed")
	}
	return true, nil
}

// Renames maps original entry names to final entry names for every entry
// the rewrite pass moved.
func (p *Processor) Renames() map[string]string { return p.renames }

// SortedRenames returns Renames as sorted (original, final) pairs.
func (p *Processor) SortedRenames() [][2]string {
	out := make([][2]string, 0, len(p.renames))
	for from, to := range p.renames {
		out = append(out, [2]string{from, to})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Analyzer is the keep build phase, or nil when there are no Keep rules.
func (p *Processor) Analyzer() *keep.Analyzer { return p.analyzer }

// Excludes lists the classes, by original name, that the deletion pass
// removes. Empty without Keep rules.
func (p *Processor) Excludes() []string {
	if p.analyzer == nil {
		return nil
	}
	return p.analyzer.Excludes()
}

// stripper returns the deletion stage, or nil when nothing is deleted.
func (p *Processor) stripper() *keep.Stripper {
	excludes := p.Excludes()
	if len(excludes) == 0 {
		return nil
	}
	return keep.NewStripper(excludes, p.renames, p.log)
}

// Strip deletes the excluded classes from the archive at path, in place.
// It must only run after the rewrite pass has seen the whole archive.
func (p *Processor) Strip(fs billy.Filesystem, path string) error {
	s := p.stripper()
	if s == nil {
		return nil
	}
	p.log.Debug().Int("classes", s.Len()).Msg("Stripping unreachable classes")
	return archive.Run(fs, path, path, s, p.log)
}

// Run performs both passes from in to out. out is only written once both
// have succeeded.
func (p *Processor) Run(fs billy.Filesystem, in, out string) error {
	tmp, err := fs.TempFile(filepath.Dir(out), ".jarjar-pass-")
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		return err
	}
	defer fs.Remove(tmpName)

	if err := archive.Run(fs, in, tmpName, p, p.log); err != nil {
		return err
	}
	if err := p.Strip(fs, tmpName); err != nil {
		return err
	}
	if err := fs.Rename(tmpName, out); err != nil {
		return fmt.Errorf("publish %s: %w", out, err)
	}
	return nil
}

// Process builds a Processor for rules and runs it from in to out.
func Process(fs billy.Filesystem, rules []pattern.Rule, in, out string, opts Options, log zerolog.Logger) (*Processor, error) {
	p, err := New(rules, opts, log)
	if err != nil {
		return nil, err
	}
	if err := p.Run(fs, in, out); err != nil {
		return nil, err
	}
	return p, nil
}
