// Package config loads the server's connection settings from a YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything needed to reach one Azure DevOps organization.
type Config struct {
	// Organization is a full URL or a bare organization name.
	Organization string `mapstructure:"organization" yaml:"organization"`

	// PAT is the personal access token used for basic auth.
	PAT string `mapstructure:"pat" yaml:"pat"`

	// Project is the default project for operations that don't name one.
	// Optional; tools can pass a project per call.
	Project string `mapstructure:"project" yaml:"project"`

	// CachePath is where the recently-viewed item cache lives.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// DefaultConfigPath returns ~/.config/ado-mcp/config.yaml, falling back
// to the working directory when the home directory can't be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "ado-mcp", "config.yaml")
}

// DefaultCachePath returns ~/.config/ado-mcp/recent.db.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "recent.db")
	}
	return filepath.Join(home, ".config", "ado-mcp", "recent.db")
}

// Load reads configuration from the given YAML file using Viper. A
// missing file is not an error; settings then come entirely from the
// ADO_ORG, ADO_PAT and ADO_PROJECT environment variables, which always
// win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("cache_path", DefaultCachePath())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if org := os.Getenv("ADO_ORG"); org != "" {
		cfg.Organization = org
	}
	if pat := os.Getenv("ADO_PAT"); pat != "" {
		cfg.PAT = pat
	}
	if project := os.Getenv("ADO_PROJECT"); project != "" {
		cfg.Project = project
	}
	if cfg.CachePath == "" {
		cfg.CachePath = DefaultCachePath()
	}

	return cfg, nil
}

// Validate reports the settings a server can't start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Organization == "" {
		missing = append(missing, "organization (or ADO_ORG)")
	}
	if c.PAT == "" {
		missing = append(missing, "pat (or ADO_PAT)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
