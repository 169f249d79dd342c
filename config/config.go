package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	ValidationFailFast    = "fail-fast"
	ValidationSkipInvalid = "skip-invalid"
)

// TomlServer represents HTTP server configuration from TOML
type TomlServer struct {
	CorsOrigins string `toml:"cors_origins"`
}

// TomlAuth represents how bearer tokens issued by the auth provider are verified
type TomlAuth struct {
	Audience string `toml:"audience"`
	Issuer   string `toml:"issuer,omitempty"`
}

// TomlPlaceholderScores are assigned by the fallback query path
type TomlPlaceholderScores struct {
	Interest  float64 `toml:"interest"`
	Proximity float64 `toml:"proximity"`
	Activity  float64 `toml:"activity"`
}

// TomlFeed represents feed retrieval configuration
type TomlFeed struct {
	DefaultLimit          int                   `toml:"default_limit"`
	RankingProcedure      string                `toml:"ranking_procedure"`
	ActivityProcedure     string                `toml:"activity_procedure"`
	FallbackEnabled       bool                  `toml:"fallback_enabled"`
	FallbackExcludeSwiped bool                  `toml:"fallback_exclude_swiped"`
	Validation            string                `toml:"validation"`
	PlaceholderScores     TomlPlaceholderScores `toml:"placeholder_scores"`
	ActivityWorkers       int                   `toml:"activity_workers"`
	ActivityQueueSize     int                   `toml:"activity_queue_size"`
}

// TomlTidy controls the tidy command
type TomlTidy struct {
	DislikeTTLDays int `toml:"dislike_ttl_days"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server TomlServer `toml:"server"`
	Auth   TomlAuth   `toml:"auth"`
	Feed   TomlFeed   `toml:"feed"`
	Tidy   TomlTidy   `toml:"tidy"`
}

// Default returns the configuration used when no file is given. Values in a
// loaded file override these.
func Default() *TomlConfig {
	return &TomlConfig{
		Server: TomlServer{
			CorsOrigins: "http://localhost:3001",
		},
		Auth: TomlAuth{
			Audience: "authenticated",
		},
		Feed: TomlFeed{
			DefaultLimit:      20,
			RankingProcedure:  "get_feed_candidates",
			ActivityProcedure: "bump_user_activity",
			FallbackEnabled:   true,
			Validation:        ValidationFailFast,
			PlaceholderScores: TomlPlaceholderScores{
				Interest:  0.5,
				Proximity: 0.5,
				Activity:  0.5,
			},
			ActivityWorkers:   2,
			ActivityQueueSize: 256,
		},
		Tidy: TomlTidy{
			DislikeTTLDays: 30,
		},
	}
}

func LoadConfig(path string) (*TomlConfig, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// Validate checks values that would otherwise fail at request time
func (c *TomlConfig) Validate() error {
	if c.Feed.DefaultLimit < 1 || c.Feed.DefaultLimit > 50 {
		return errors.New("feed.default_limit must be between 1 and 50")
	}
	if c.Feed.Validation != ValidationFailFast && c.Feed.Validation != ValidationSkipInvalid {
		return fmt.Errorf("feed.validation must be %q or %q", ValidationFailFast, ValidationSkipInvalid)
	}
	if c.Feed.RankingProcedure == "" {
		return errors.New("feed.ranking_procedure is required")
	}
	if c.Feed.ActivityWorkers < 1 {
		return errors.New("feed.activity_workers must be at least 1")
	}
	if c.Feed.ActivityQueueSize < 1 {
		return errors.New("feed.activity_queue_size must be at least 1")
	}
	if c.Tidy.DislikeTTLDays < 1 {
		return errors.New("tidy.dislike_ttl_days must be at least 1")
	}
	return nil
}
