package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/paths"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// envPrefix is the prefix for environment variable overrides. A double
// underscore separates nesting levels so that underscores inside key
// names survive, e.g. MODSMITH_API__BASE_URL -> api.base_url.
const envPrefix = "MODSMITH_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Load builds the merged configuration: embedded defaults, then the
// user config file (if present), then MODSMITH_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom is Load with an explicit user config file path, for tests.
func LoadFrom(userConfigPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load system defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Load user config if it exists
	if userConfigPath != "" {
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := k.Load(file.Provider(userConfigPath), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse,
					"failed to load config from %s", userConfigPath)
			}
		}
	}

	// 3. Load env vars
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
