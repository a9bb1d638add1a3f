package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/jarjar/internal/config"
	"github.com/agentic-research/jarjar/internal/logging"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

// flagKeys maps flag names to config keys; only flags the user set are
// passed to config.Load.
var flagKeys = map[string]string{
	"verbose":       config.KeyVerbose,
	"skip-manifest": config.KeySkipManifest,
	"report":        config.KeyReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every renamed, removed and excluded entry")
}

var rootCmd = &cobra.Command{
	Use:           "jarjar",
	Short:         "Repackage Java archives by rewriting class and package names",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		for name, key := range flagKeys {
			f := cmd.Flags().Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			switch key {
			case config.KeyReport:
				overrides[key] = f.Value.String()
			default:
				overrides[key] = f.Value.String() == "true"
			}
		}
		var err error
		if cfg, err = config.Load(configPath, overrides); err != nil {
			return err
		}
		logging.Setup(cmd.ErrOrStderr(), cfg.Verbose)
		return nil
	},
}

// hostFS is the filesystem commands read and write. Paths handed to it are
// made absolute first.
func hostFS() billy.Filesystem {
	return osfs.New("/")
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

func absClasspath(cp string) (string, error) {
	elems := filepath.SplitList(cp)
	for i, e := range elems {
		abs, err := absPath(e)
		if err != nil {
			return "", err
		}
		elems[i] = abs
	}
	return strings.Join(elems, string(os.PathListSeparator)), nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jarjar:", err)
		os.Exit(1)
	}
}
