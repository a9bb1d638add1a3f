// Package config loads run settings from defaults, an optional YAML file,
// JARJAR_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "JARJAR_"

// Keys shared by the YAML file, the environment and the flags.
const (
	KeyVerbose      = "verbose"
	KeySkipManifest = "skip_manifest"
	KeyReport       = "report"
)

type Config struct {
	Verbose      bool   `koanf:"verbose"`
	SkipManifest bool   `koanf:"skip_manifest"`
	Report       string `koanf:"report"`
}

func defaults() map[string]any {
	return map[string]any{
		KeyVerbose:      false,
		KeySkipManifest: false,
		KeyReport:       "",
	}
}

// Load merges every source. path may be empty; a named file must exist.
// overrides holds only the flags the user actually set.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	// JARJAR_SKIP_MANIFEST -> skip_manifest
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
