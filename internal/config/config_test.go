// ABOUTME: Tests for configuration loading, env expansion, and validation
// ABOUTME: Covers defaults, duration parsing, and rate limit validation failures

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
api:
  base_url: https://api.example.com/v2
  account_token: secret
  timeout: 30s
rate_limit:
  requests: 3
  period: 2s
tokens:
  path: /tmp/tokens.json
database:
  path: /tmp/requests.db
server:
  http_addr: 127.0.0.1:9000
logging:
  level: debug
  format: json
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.com/v2", cfg.API.BaseURL)
		assert.Equal(t, "secret", cfg.API.AccountToken)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, 3, cfg.RateLimit.Requests)
		assert.Equal(t, 2*time.Second, cfg.RateLimit.Period)
		assert.Equal(t, "/tmp/tokens.json", cfg.Tokens.Path)
		assert.Equal(t, "/tmp/requests.db", cfg.Database.Path)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddr)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("defaults", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: info
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
		assert.Equal(t, DefaultRateLimitRequests, cfg.RateLimit.Requests)
		assert.Equal(t, DefaultRateLimitPeriod, cfg.RateLimit.Period)
		assert.Equal(t, "agent_tokens.json", cfg.Tokens.Path)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_ACCOUNT_TOKEN", "from-env")
		path := writeConfig(t, `
api:
  account_token: ${TEST_ACCOUNT_TOKEN}
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.API.AccountToken)
	})

	t.Run("unset env var expands to empty", func(t *testing.T) {
		path := writeConfig(t, `
api:
  account_token: ${DEFINITELY_NOT_SET_ANYWHERE}
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.API.AccountToken)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "api: [broken")
		_, err := Load(path)
		assert.ErrorContains(t, err, "parsing config file")
	})

	t.Run("invalid duration", func(t *testing.T) {
		path := writeConfig(t, `
rate_limit:
  requests: 2
  period: banana
`)
		_, err := Load(path)
		assert.ErrorContains(t, err, "parsing rate_limit.period")
	})

	t.Run("negative rate limit requests", func(t *testing.T) {
		path := writeConfig(t, `
rate_limit:
  requests: -1
  period: 1s
`)
		_, err := Load(path)
		assert.ErrorContains(t, err, "rate_limit.requests must be positive")
	})

	t.Run("zero period with requests set", func(t *testing.T) {
		path := writeConfig(t, `
rate_limit:
  requests: 5
`)
		_, err := Load(path)
		assert.ErrorContains(t, err, "rate_limit.period must be positive")
	})
}
