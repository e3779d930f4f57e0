package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSettingsFile = "tmail.yaml"

	defaultGetBodyLimit     = 100
	defaultSearchBodyLimit  = 50
	defaultMaxResults       = 10
	defaultFetchConcurrency = 8
	maxResultsCeiling       = 500
)

// Settings holds everything the CLI needs besides the filter rules.
// Values come from defaults, then the YAML file, then TMAIL_* variables.
type Settings struct {
	CredentialsFile string `yaml:"credentials_file" env:"TMAIL_CREDENTIALS_FILE"`
	TokenFile       string `yaml:"token_file" env:"TMAIL_TOKEN_FILE"`
	FiltersFile     string `yaml:"filters_file" env:"TMAIL_FILTERS_FILE"`
	LogFile         string `yaml:"log_file" env:"TMAIL_LOG_FILE"`
	LogLevel        string `yaml:"log_level" env:"TMAIL_LOG_LEVEL"`

	GetBodyLimit        int   `yaml:"get_body_limit" env:"TMAIL_GET_BODY_LIMIT"`
	SearchBodyLimit     int   `yaml:"search_body_limit" env:"TMAIL_SEARCH_BODY_LIMIT"`
	MaxResults          int64 `yaml:"max_results" env:"TMAIL_MAX_RESULTS"`
	FetchConcurrency    int   `yaml:"fetch_concurrency" env:"TMAIL_FETCH_CONCURRENCY"`
	ReduceAggregateHTML bool  `yaml:"reduce_aggregate_html" env:"TMAIL_REDUCE_AGGREGATE_HTML"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		CredentialsFile:  "credentials.json",
		TokenFile:        "token.json",
		FiltersFile:      "config/filters.json",
		LogFile:          "tmail.log",
		LogLevel:         "info",
		GetBodyLimit:     defaultGetBodyLimit,
		SearchBodyLimit:  defaultSearchBodyLimit,
		MaxResults:       defaultMaxResults,
		FetchConcurrency: defaultFetchConcurrency,
	}
}

// LoadSettings reads path on top of the defaults and applies environment
// overrides. A missing file is not an error; a malformed one is.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("parsing settings %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects values the fetch layer cannot work with.
func (s Settings) Validate() error {
	var errs []error
	if s.GetBodyLimit < 0 {
		errs = append(errs, fmt.Errorf("get_body_limit must not be negative, got %d", s.GetBodyLimit))
	}
	if s.SearchBodyLimit < 0 {
		errs = append(errs, fmt.Errorf("search_body_limit must not be negative, got %d", s.SearchBodyLimit))
	}
	if s.MaxResults < 1 || s.MaxResults > maxResultsCeiling {
		errs = append(errs, fmt.Errorf("max_results must be between 1 and %d, got %d", maxResultsCeiling, s.MaxResults))
	}
	if s.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch_concurrency must be at least 1, got %d", s.FetchConcurrency))
	}
	return errors.Join(errs...)
}
