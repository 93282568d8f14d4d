// Package config loads the repositories to analyze and the GitHub connection
// settings from a config file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/naka-gawa/prstats/internal/domain"
)

// TokenEnv is the environment variable consulted when no token is configured.
const TokenEnv = "GH_TOKEN"

const (
	apiREST    = "rest"
	apiGraphQL = "graphql"
)

// Config is the application configuration.
type Config struct {
	// Token authenticates against GitHub. See ResolveToken for precedence.
	Token string `yaml:"token" json:"token" toml:"token"`
	// BaseURL is the GitHub Enterprise URL. Empty selects github.com.
	BaseURL        string              `yaml:"base_url" json:"base_url" toml:"base_url" env:"GH_URL"`
	OutputDir      string              `yaml:"output_dir" json:"output_dir" toml:"output_dir" env:"PRSTATS_OUTPUT_DIR" env-default:"output"`
	API            string              `yaml:"api" json:"api" toml:"api" env:"PRSTATS_API" env-default:"rest"`
	FaultTolerance *int                `yaml:"fault_tolerance" json:"fault_tolerance" toml:"fault_tolerance"`
	Workbook       bool                `yaml:"workbook" json:"workbook" toml:"workbook" env:"PRSTATS_WORKBOOK"`
	Repos          []domain.Repository `yaml:"repos" json:"repos" toml:"repos"`
}

// Load reads the configuration. A .env file in the working directory is
// loaded first when present. With an empty path only the environment is read.
// The token is resolved against GH_TOKEN before returning.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	cfg.Token = ResolveToken(cfg.Token, os.Getenv(TokenEnv))
	return &cfg, nil
}

// ResolveToken returns configured unless it is empty, then env.
func ResolveToken(configured, env string) string {
	if configured != "" {
		return configured
	}
	return env
}

// FaultToleranceOr returns the configured fault tolerance or def when unset.
func (c *Config) FaultToleranceOr(def int) int {
	if c.FaultTolerance == nil {
		return def
	}
	return *c.FaultTolerance
}

// Validate checks that the configuration can drive an analysis.
func (c *Config) Validate() error {
	var result *multierror.Error
	if len(c.Repos) == 0 {
		result = multierror.Append(result, errors.New("no repositories configured"))
	}
	for i, repo := range c.Repos {
		if repo.Org == "" || repo.Name == "" {
			result = multierror.Append(result, fmt.Errorf("repos[%d]: org and repo are required", i))
		}
	}
	if c.FaultTolerance != nil && *c.FaultTolerance < 0 {
		result = multierror.Append(result, fmt.Errorf("fault_tolerance must not be negative, got %d", *c.FaultTolerance))
	}
	switch c.API {
	case "", apiREST, apiGraphQL:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown api %q: expected %s or %s", c.API, apiREST, apiGraphQL))
	}
	if c.OutputDir == "" {
		result = multierror.Append(result, errors.New("output_dir must not be empty"))
	}
	return result.ErrorOrNil()
}
