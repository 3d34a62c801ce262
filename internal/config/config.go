// Package config loads the run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/github-star-growth/internal/gateway"
)

// Defaults used when the environment leaves a setting empty.
const (
	DefaultReferenceTimestamp = "2019-01-01T00:00:00Z"
	DefaultRetryDelay         = 3 * time.Second
	DefaultEstimateAttempts   = 3
	DefaultUserAgent          = "script"
	DefaultOutputDir          = "."
)

// DefaultCategories are the searched keywords, in output order.
var DefaultCategories = []string{
	"audio",
	"cache",
	"database",
	"docker",
	"event",
	"file",
	"framework",
	"graphql",
	"image",
	"library",
	"lint",
	"logging",
	"mail",
	"number",
	"odm",
	"orm",
	"queue",
	"sort",
	"string",
	"template",
	"test",
	"time",
	"typescript",
	"validation",
	"websocket",
}

// Config holds everything a run needs.
type Config struct {
	Token              string
	ReferenceTimestamp string
	// ReferenceTime is ReferenceTimestamp parsed by Validate.
	ReferenceTime time.Time
	// StarCeiling drops repositories with at least this many stars. Zero disables it.
	StarCeiling      int
	Categories       []string
	OutputDir        string
	SearchAPI        string
	PerPage          int
	RetryDelay       time.Duration
	SearchAttempts   int // 0 retries forever
	EstimateAttempts int
	Concurrency      int
	UserAgent        string
	PostgresDSN      string
	Debug            bool
}

// FromEnvironment loads and validates the configuration from the process environment.
func FromEnvironment() (Config, error) {
	return Load(os.Getenv)
}

// Load reads the configuration through getenv, applies defaults and validates it.
func Load(getenv func(string) string) (Config, error) {
	cfg := LoadConfigWithEnv(getenv)

	var err error
	if cfg.StarCeiling, err = intFromEnv(getenv, "STARGROWTH_STAR_CEILING", 0); err != nil {
		return Config{}, err
	}
	if cfg.PerPage, err = intFromEnv(getenv, "STARGROWTH_PER_PAGE", 0); err != nil {
		return Config{}, err
	}
	if cfg.SearchAttempts, err = intFromEnv(getenv, "STARGROWTH_SEARCH_ATTEMPTS", 0); err != nil {
		return Config{}, err
	}
	if cfg.EstimateAttempts, err = intFromEnv(getenv, "STARGROWTH_ESTIMATE_ATTEMPTS", DefaultEstimateAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Concurrency, err = intFromEnv(getenv, "STARGROWTH_CONCURRENCY", 1); err != nil {
		return Config{}, err
	}
	if v := getenv("STARGROWTH_RETRY_DELAY"); v != "" {
		if cfg.RetryDelay, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("STARGROWTH_RETRY_DELAY must be a duration such as 3s: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigWithEnv reads the string and boolean settings through getenv and fills in defaults.
// Numeric settings keep their defaults; Load parses them.
func LoadConfigWithEnv(getenv func(string) string) Config {
	cfg := Config{
		Token:              getenv("GITHUB_TOKEN"),
		ReferenceTimestamp: valueOr(getenv("STARGROWTH_REFERENCE_TIME"), DefaultReferenceTimestamp),
		Categories:         append([]string(nil), DefaultCategories...),
		OutputDir:          valueOr(getenv("STARGROWTH_OUTPUT_DIR"), DefaultOutputDir),
		SearchAPI:          valueOr(getenv("STARGROWTH_SEARCH_API"), gateway.SearchAPIREST),
		RetryDelay:         DefaultRetryDelay,
		EstimateAttempts:   DefaultEstimateAttempts,
		Concurrency:        1,
		UserAgent:          valueOr(getenv("STARGROWTH_USER_AGENT"), DefaultUserAgent),
		PostgresDSN:        getenv("STARGROWTH_POSTGRES_DSN"),
		Debug:              getenv("STARGROWTH_DEBUG") == "true",
	}
	if v := getenv("STARGROWTH_CATEGORIES"); v != "" {
		cfg.Categories = strings.Split(v, ",")
		for i := range cfg.Categories {
			cfg.Categories[i] = strings.TrimSpace(cfg.Categories[i])
		}
	}
	return cfg
}

// Validate checks the configuration and parses the reference timestamp.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("GITHUB_TOKEN must be set")
	}
	at, err := time.Parse(time.RFC3339, c.ReferenceTimestamp)
	if err != nil {
		return fmt.Errorf("STARGROWTH_REFERENCE_TIME must be an RFC 3339 timestamp: %w", err)
	}
	c.ReferenceTime = at

	if len(c.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, category := range c.Categories {
		if category == "" {
			return errors.New("STARGROWTH_CATEGORIES must not contain empty categories")
		}
		if seen[category] {
			return fmt.Errorf("category %q is listed twice", category)
		}
		seen[category] = true
	}

	switch c.SearchAPI {
	case gateway.SearchAPIREST, gateway.SearchAPIGraphQL:
	default:
		return fmt.Errorf("STARGROWTH_SEARCH_API must be %q or %q", gateway.SearchAPIREST, gateway.SearchAPIGraphQL)
	}
	if c.StarCeiling < 0 {
		return errors.New("STARGROWTH_STAR_CEILING must be a positive integer")
	}
	if c.PerPage < 0 || c.PerPage > 100 {
		return errors.New("STARGROWTH_PER_PAGE must be at most 100")
	}
	if c.RetryDelay <= 0 {
		return errors.New("STARGROWTH_RETRY_DELAY must be positive")
	}
	if c.SearchAttempts < 0 {
		return errors.New("STARGROWTH_SEARCH_ATTEMPTS must not be negative")
	}
	if c.EstimateAttempts < 1 {
		return errors.New("STARGROWTH_ESTIMATE_ATTEMPTS must be at least 1")
	}
	if c.Concurrency < 1 {
		return errors.New("STARGROWTH_CONCURRENCY must be at least 1")
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intFromEnv(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
