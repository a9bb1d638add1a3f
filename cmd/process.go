package cmd

import (
	"github.com/agentic-research/jarjar/internal/archive"
	"github.com/agentic-research/jarjar/internal/logging"
	"github.com/agentic-research/jarjar/internal/repack"
	"github.com/agentic-research/jarjar/internal/report"
	"github.com/agentic-research/jarjar/internal/rules"
	"github.com/spf13/cobra"
)

func init() {
	processCmd.Flags().Bool("skip-manifest", false, "Drop META-INF/MANIFEST.MF instead of rewriting Main-Class")
	processCmd.Flags().String("report", "", "Write renames, dependencies and exclusions to this SQLite database")
	rootCmd.AddCommand(processCmd)
}

var processCmd = &cobra.Command{
	Use:   "process <rules> <in.jar> <out.jar>",
	Short: "Rewrite a jar according to a rules file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths [3]string
		for i, a := range args {
			p, err := absPath(a)
			if err != nil {
				return err
			}
			paths[i] = p
		}
		fs := hostFS()
		log := logging.Component("repack")

		rs, err := rules.ParseFile(fs, paths[0])
		if err != nil {
			return err
		}
		p, err := repack.Process(fs, rs, paths[1], paths[2], repack.Options{SkipManifest: cfg.SkipManifest}, log)
		if err != nil {
			return err
		}
		digest, err := archive.Digest(fs, paths[2])
		if err != nil {
			return err
		}
		log.Debug().
			Int("renamed", len(p.Renames())).
			Int("excluded", len(p.Excludes())).
			Str("out", paths[2]).
			Str("blake3", digest).
			Msg("Wrote archive")

		if cfg.Report == "" {
			return nil
		}
		reportPath, err := absPath(cfg.Report)
		if err != nil {
			return err
		}
		return writeReport(reportPath, p, paths[2], digest)
	},
}

func writeReport(path string, p *repack.Processor, out, digest string) (err error) {
	w, err := report.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	if err := w.AddOutput(out, digest); err != nil {
		return err
	}
	for _, r := range p.SortedRenames() {
		if err := w.AddRename(r[0], r[1]); err != nil {
			return err
		}
	}
	a := p.Analyzer()
	if a == nil {
		return nil
	}
	g := a.Graph()
	for _, class := range g.Nodes() {
		for _, dep := range g.Deps(class) {
			if err := w.AddDep(class, dep); err != nil {
				return err
			}
		}
	}
	for _, class := range p.Excludes() {
		if err := w.AddExclude(class); err != nil {
			return err
		}
	}
	return nil
}
