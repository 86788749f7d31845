// internal/common/config/loader_test.go
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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
database:
  elasticsearch:
    addresses:
      - "http://localhost:9200"
  redis:
    address: "localhost:6379"
apis:
  completion:
    base_url: "https://api.example.com/v1"
`

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 2, cfg.Engine.MaxToolRounds)
	assert.Equal(t, 90000, cfg.Engine.LoopBudget)
	assert.Equal(t, 100, cfg.Engine.DefaultLimit)
	assert.Equal(t, 10, cfg.Engine.CarouselLimit)
	assert.Equal(t, "unified_listings", cfg.Database.Elasticsearch.ListingsIndex)
	assert.Equal(t, "articles", cfg.Database.Elasticsearch.ArticlesIndex)
	assert.Equal(t, "gpt-4o-mini", cfg.APIs.Completion.Model)
	assert.Equal(t, 60000, cfg.APIs.Completion.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileMissingCompletionURL(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, `
database:
  elasticsearch:
    addresses:
      - "http://localhost:9200"
  redis:
    address: "localhost:6379"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadFromFileRoundsOutOfRange(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, minimalConfig+`
engine:
  max_tool_rounds: 12
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tool_rounds")
}

func TestLoadFromFileExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_COMPLETION_KEY", "sk-test-123")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
    api_key: "${TEST_COMPLETION_KEY}"
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.APIs.Completion.APIKey)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
