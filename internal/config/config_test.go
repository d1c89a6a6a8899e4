package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NEWSDIFF_CONFIG", "")
	t.Setenv("TESTING", "")

	cfg := Load()

	assert.Equal(t, "https://api.nytimes.com/svc/topstories/v2/home.json", cfg.Feed.URL)
	assert.Equal(t, 10, cfg.Feed.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Feed.RetryDelay)
	assert.Equal(t, []string{"bluesky", "twitter"}, cfg.Platforms.Order)
	assert.True(t, cfg.Testing, "posting must be off until explicitly enabled")
	assert.Equal(t, time.UTC, cfg.Scheduler.Location())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env/db")
	t.Setenv("NYT_API_KEY", "env-key")
	t.Setenv("BLUESKY_LOGIN", "diffbot.example")
	t.Setenv("BLUESKY_PASSWD", "app-password")
	t.Setenv("TESTING", "False")

	cfg := Load()

	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, "env-key", cfg.Feed.APIKey)
	assert.True(t, cfg.Platforms.Bluesky.Configured())
	assert.False(t, cfg.Testing)
}

func TestLoadTestingStaysOnForOtherValues(t *testing.T) {
	t.Setenv("TESTING", "0")

	cfg := Load()
	assert.True(t, cfg.Testing)
}

func TestLoadYAMLFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
feed:
  url: https://feed.example/stories.json
  maxRetries: 2
scheduler:
  cronExpression: "0 * * * *"
  timezone: America/New_York
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("NEWSDIFF_CONFIG", path)

	cfg := Load()

	assert.Equal(t, "https://feed.example/stories.json", cfg.Feed.URL)
	assert.Equal(t, 2, cfg.Feed.MaxRetries)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.Feed.RetryDelay)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "America/New_York", cfg.Scheduler.Location().String())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadYAMLTestingToggle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("testing: false\n"), 0o600))
	t.Setenv("NEWSDIFF_CONFIG", path)
	t.Setenv("TESTING", "")

	cfg := Load()
	assert.False(t, cfg.Testing)
}

func TestLoadYAMLWithoutTestingKeepsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))
	t.Setenv("NEWSDIFF_CONFIG", path)
	t.Setenv("TESTING", "")

	cfg := Load()
	assert.True(t, cfg.Testing)
}

func TestLoadEnvTestingBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("testing: false\n"), 0o600))
	t.Setenv("NEWSDIFF_CONFIG", path)
	t.Setenv("TESTING", "1")

	// Any env value other than an explicit "False" forces dry-run back on.
	cfg := Load()
	assert.True(t, cfg.Testing)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv("NEWSDIFF_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, 10, cfg.Feed.MaxRetries)
}
