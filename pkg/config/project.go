package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/modsmith/modsmith/pkg/errors"
)

// ProjectConfigFile is an optional per-project override file living next
// to the project manifest.
const ProjectConfigFile = "modsmith.toml"

// ProjectOverrides are the settings a single modpack project may override,
// e.g. to point at a Modrinth mirror or lower the request fan-out.
type ProjectOverrides struct {
	API struct {
		BaseURL   string `toml:"base_url"`
		UserAgent string `toml:"user_agent"`
	} `toml:"api"`
	Resolver struct {
		BatchSize         int `toml:"batch_size"`
		SearchConcurrency int `toml:"search_concurrency"`
	} `toml:"resolver"`
	Download struct {
		Concurrency int `toml:"concurrency"`
	} `toml:"download"`
}

// ApplyProjectOverrides merges the project-level modsmith.toml (if any)
// found in projectDir into cfg. The merged config is re-validated so a
// bad override fails closed just like a bad user config.
func ApplyProjectOverrides(cfg *Config, projectDir string) error {
	path := filepath.Join(projectDir, ProjectConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path)
	}

	var overrides ProjectOverrides
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}

	if overrides.API.BaseURL != "" {
		cfg.API.BaseURL = overrides.API.BaseURL
	}
	if overrides.API.UserAgent != "" {
		cfg.API.UserAgent = overrides.API.UserAgent
	}
	if overrides.Resolver.BatchSize != 0 {
		cfg.Resolver.BatchSize = overrides.Resolver.BatchSize
	}
	if overrides.Resolver.SearchConcurrency != 0 {
		cfg.Resolver.SearchConcurrency = overrides.Resolver.SearchConcurrency
	}
	if overrides.Download.Concurrency != 0 {
		cfg.Download.Concurrency = overrides.Download.Concurrency
	}

	return cfg.Validate()
}
