// Package config loads benchtable settings from defaults, an optional
// benchtable.yaml, BENCHTABLE_* environment variables and command line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/codalotl/benchtable/internal/report"
	"github.com/codalotl/benchtable/internal/table"
)

const (
	EnvPrefix = "BENCHTABLE_"

	DefaultRawCache    = report.DefaultRawCache
	DefaultOutput      = report.DefaultOutput
	DefaultCachePolicy = string(table.LoadIfPresent)
)

// FileNames are the config files looked up in the working directory when no
// explicit --config is given.
var FileNames = []string{"benchtable.yaml", "benchtable.yml"}

type Config struct {
	// ReportsDir is the reports root. Empty means derive it from the working directory.
	ReportsDir  string   `koanf:"reports_dir"`
	RawCache    string   `koanf:"raw_cache"`
	Output      string   `koanf:"output"`
	CachePolicy string   `koanf:"cache_policy"`
	Agents      []string `koanf:"agents"`
	SkipMock    bool     `koanf:"skip_mock"`
	Verbose     bool     `koanf:"verbose"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Load builds a Config. Precedence, highest first: flags that were explicitly
// set, environment, config file, defaults. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"reports_dir":  "",
		"raw_cache":    DefaultRawCache,
		"output":       DefaultOutput,
		"cache_policy": DefaultCachePolicy,
		"agents":       []string{},
		"skip_mock":    false,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// BENCHTABLE_CACHE_POLICY -> cache_policy
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "agents" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := knownKeys[key]; !ok {
				return "", nil
			}
			val := posflag.FlagVal(flags, f)
			if s, ok := val.(string); ok && key == "agents" {
				return key, splitList(s)
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = path
	cfg.Agents = normalizeList(cfg.Agents)
	return &cfg, nil
}

var knownKeys = map[string]struct{}{
	"reports_dir":  {},
	"raw_cache":    {},
	"output":       {},
	"cache_policy": {},
	"agents":       {},
	"skip_mock":    {},
	"verbose":      {},
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	for _, name := range FileNames {
		if fi, err := os.Stat(name); err == nil && fi.Mode().IsRegular() {
			return name, nil
		}
	}
	return "", nil
}

func splitList(s string) []string {
	return normalizeList(strings.Split(s, ","))
}

// normalizeList trims entries, splits comma-joined entries and drops empties.
func normalizeList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
