// ABOUTME: Configuration loading and parsing for startrader-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production SpaceTraders API endpoint.
const DefaultBaseURL = "https://api.spacetraders.io/v2"

// Default rate limit: the API allows 2 requests per second.
const (
	DefaultRateLimitRequests = 2
	DefaultRateLimitPeriod   = time.Second
)

// Config represents the complete startrader-gateway configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tokens    TokensConfig    `yaml:"tokens"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig holds settings for the remote SpaceTraders API
type APIConfig struct {
	BaseURL string `yaml:"base_url"`

	// AccountToken is the account-level bearer token used for registration
	// and other account-scoped calls. Typically sourced from the
	// SPACETRADERS_API_KEY environment variable via ${...} expansion.
	AccountToken string `yaml:"account_token"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// RateLimitConfig holds the global outbound rate limit parameters
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Period   time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	PeriodRaw string `yaml:"period"`
}

// TokensConfig holds agent token persistence configuration
type TokensConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig holds the request audit database configuration.
// An empty path disables auditing.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the MCP HTTP server configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// AccessToken, when set, is required on MCP requests (bearer header,
	// token query parameter, or /mcp/<token> path).
	AccessToken string `yaml:"access_token"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for fields the file may omit
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.RateLimit.Requests == 0 && c.RateLimit.Period == 0 {
		c.RateLimit.Requests = DefaultRateLimitRequests
		c.RateLimit.Period = DefaultRateLimitPeriod
	}
	if c.Tokens.Path == "" {
		c.Tokens.Path = "agent_tokens.json"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	// A zero or negative rate limit is a configuration error, not something
	// to discover at the first dispatch
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Period <= 0 {
		return fmt.Errorf("rate_limit.period must be positive, got %s", c.RateLimit.Period)
	}

	if c.Tokens.Path == "" {
		return fmt.Errorf("tokens.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.RateLimit.PeriodRaw != "" {
		cfg.RateLimit.Period, err = time.ParseDuration(cfg.RateLimit.PeriodRaw)
		if err != nil {
			return fmt.Errorf("parsing rate_limit.period %q: %w", cfg.RateLimit.PeriodRaw, err)
		}
	}

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	return nil
}
