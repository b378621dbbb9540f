package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.test/api/v1")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err, "missing .env file is tolerated")

	assert.Equal(t, "listings-agent", cfg.AppName)
	assert.Equal(t, "8090", cfg.Rest.PORT)
	assert.Equal(t, 300*time.Millisecond, cfg.Fetcher.FilterDebounce)
	assert.Equal(t, 20, cfg.Fetcher.PageSize)
	assert.True(t, cfg.Fetcher.GenerationGuard)
	assert.True(t, cfg.Fetcher.DedupeOnAppend)
	assert.Equal(t, 8, cfg.Favorites.LikedFetchConcurrency)
	assert.Empty(t, cfg.RabbitMQ.URL)
	assert.False(t, cfg.FluentBit.Enabled)
	assert.Equal(t, "debug", cfg.StdoutLogger.Level)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "API_BASE_URL=http://backend.test\n" +
		"FILTER_DEBOUNCE=150ms\n" +
		"FETCH_GENERATION_GUARD=false\n" +
		"PAGE_SIZE=50\n" +
		"CORS_ALLOWED_ORIGINS= http://a.test , ,http://b.test\n" +
		"FLUENTBIT_ENABLED=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv не перезаписывает уже заданные переменные, t.Setenv вернет старые значения после теста
	for _, key := range []string{"API_BASE_URL", "FILTER_DEBOUNCE", "FETCH_GENERATION_GUARD", "PAGE_SIZE", "CORS_ALLOWED_ORIGINS", "FLUENTBIT_ENABLED", "FLUENTBIT_HOST"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, 150*time.Millisecond, cfg.Fetcher.FilterDebounce)
	assert.False(t, cfg.Fetcher.GenerationGuard)
	assert.Equal(t, 50, cfg.Fetcher.PageSize)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Rest.CORSAllowedOrigins)
	assert.False(t, cfg.FluentBit.Enabled, "fluent bit without host is disabled")
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestGetEnvHelpersFallBack(t *testing.T) {
	t.Setenv("TEST_DURATION", "soon")
	t.Setenv("TEST_INT", "many")
	t.Setenv("TEST_BOOL", "perhaps")

	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION", time.Second))
	assert.Equal(t, 3, getEnvAsInt("TEST_INT", 3))
	assert.True(t, getEnvAsBool("TEST_BOOL", true))
}
