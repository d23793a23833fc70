package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Auth      AuthConfig      `yaml:"auth"`
	Context   ContextConfig   `yaml:"context"`
	Intent    IntentConfig    `yaml:"intent"`
	Recommend RecommendConfig `yaml:"recommend"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains workflow catalog database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OpenAIConfig contains language-model settings.
type OpenAIConfig struct {
	APIKey      string  `yaml:"-"` // env-only, never in YAML
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// ContextConfig contains context builder settings.
type ContextConfig struct {
	Staleness        Duration `yaml:"staleness"`
	MaxRecentQueries int      `yaml:"max_recent_queries"`
}

// IntentConfig contains intent analyzer settings.
type IntentConfig struct {
	HistorySize         int     `yaml:"history_size"`
	RefinementIncrement float64 `yaml:"refinement_increment"`
}

// RecommendConfig contains recommender settings.
type RecommendConfig struct {
	CacheTTL           Duration      `yaml:"cache_ttl"`
	MinConfidence      float64       `yaml:"min_confidence"`
	MaxRecommendations int           `yaml:"max_recommendations"`
	SearchLimit        int          `yaml:"search_limit"`
	Weights            ScoreWeights `yaml:"weights"`
}

// ScoreWeights are the composite scoring weights. Each must be in [0,1];
// they are not required to sum to 1 because the final score is capped.
type ScoreWeights struct {
	IntentMatch     float64 `yaml:"intent_match"`
	UserFit         float64 `yaml:"user_fit"`
	Popularity      float64 `yaml:"popularity"`
	SetupSimplicity float64 `yaml:"setup_simplicity"`
	Compatibility   float64 `yaml:"compatibility"`
}

// SweeperConfig contains cache sweeper settings.
type SweeperConfig struct {
	Interval Duration `yaml:"interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("WAYPOINT_CONFIG_PATH", "config/waypoint.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/waypoint.db",
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   1500,
		},
		Context: ContextConfig{
			Staleness:        Duration(30 * time.Minute),
			MaxRecentQueries: 10,
		},
		Intent: IntentConfig{
			HistorySize:         50,
			RefinementIncrement: 0.1,
		},
		Recommend: RecommendConfig{
			CacheTTL:           Duration(15 * time.Minute),
			MinConfidence:      0.3,
			MaxRecommendations: 5,
			SearchLimit:        20,
			Weights: ScoreWeights{
				IntentMatch:     0.30,
				UserFit:         0.25,
				Popularity:      0.15,
				SetupSimplicity: 0.20,
				Compatibility:   0.10,
			},
		},
		Sweeper: SweeperConfig{
			Interval: Duration(5 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("WAYPOINT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WAYPOINT_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("WAYPOINT_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("WAYPOINT_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("WAYPOINT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// OpenAI (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("WAYPOINT_OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("WAYPOINT_OPENAI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.OpenAI.Temperature = f
		}
	}
	if v := os.Getenv("WAYPOINT_OPENAI_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.OpenAI.MaxTokens = n
		}
	}

	// Auth
	if v := os.Getenv("WAYPOINT_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Context
	if v := os.Getenv("WAYPOINT_CONTEXT_STALENESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Context.Staleness = Duration(d)
		}
	}
	if v := os.Getenv("WAYPOINT_CONTEXT_MAX_RECENT_QUERIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Context.MaxRecentQueries = n
		}
	}

	// Intent
	if v := os.Getenv("WAYPOINT_INTENT_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Intent.HistorySize = n
		}
	}
	if v := os.Getenv("WAYPOINT_INTENT_REFINEMENT_INCREMENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Intent.RefinementIncrement = f
		}
	}

	// Recommend
	if v := os.Getenv("WAYPOINT_RECOMMEND_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recommend.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("WAYPOINT_RECOMMEND_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Recommend.MinConfidence = f
		}
	}
	if v := os.Getenv("WAYPOINT_RECOMMEND_MAX_RECOMMENDATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Recommend.MaxRecommendations = n
		}
	}
	if v := os.Getenv("WAYPOINT_RECOMMEND_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Recommend.SearchLimit = n
		}
	}

	// Sweeper
	if v := os.Getenv("WAYPOINT_SWEEPER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweeper.Interval = Duration(d)
		}
	}

	// Log
	if v := os.Getenv("WAYPOINT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WAYPOINT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set and that
// scoring weights are within range.
// In dev mode (WAYPOINT_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	weights := map[string]float64{
		"intent_match":     c.Recommend.Weights.IntentMatch,
		"user_fit":         c.Recommend.Weights.UserFit,
		"popularity":       c.Recommend.Weights.Popularity,
		"setup_simplicity": c.Recommend.Weights.SetupSimplicity,
		"compatibility":    c.Recommend.Weights.Compatibility,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight %s must be in [0,1], got %v", name, w)
		}
	}
	if c.Recommend.MinConfidence < 0 || c.Recommend.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.Recommend.MinConfidence)
	}

	// Dev mode bypasses API key validation
	if os.Getenv("WAYPOINT_DEV_MODE") == "true" {
		return nil
	}

	if c.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.Auth.APIKey == "" {
		return errors.New("WAYPOINT_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
