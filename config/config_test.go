package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AllowedOrigins": ["https://a.example"], "DefaultGroupID": "dojo"},
		"database": {"Driver": "sqlite", "DatabaseURI": "file.db"},
		"leaderboard": {"DebounceMS": 250},
		"kafka": {"Brokers": ["k1:9092", "k2:9092"], "AnalyticsTopic": "events"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var c AppConfig
	require.NoError(t, loadConfigFile(path, &c))
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "dojo", c.DefaultGroupID)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 250, c.LeaderboardDebounceMS)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, "events", c.KafkaAnalyticsTopic)
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  AppPort: "7000"
  JWTSecret: yaml-secret
  RateLimitPerMinute: 120
redis:
  RedisHost: cache
  RedisPort: 6380
shoutbox:
  MaxLength: 280
admin:
  Usernames: [coach]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var c AppConfig
	require.NoError(t, loadConfigFile(path, &c))
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "yaml-secret", c.JWTSecret)
	assert.Equal(t, 120, c.RateLimitPerMinute)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, 280, c.ShoutboxMaxLength)
	assert.Equal(t, []string{"coach"}, c.AdminUsernames)
}

func TestLoadConfigFileMissingIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadConfigFile(filepath.Join(t.TempDir(), "nope.json"), &c))
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	var c AppConfig
	assert.Error(t, loadConfigFile(path, &c))
}

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "global", c.DefaultGroupID)
	assert.Equal(t, 500, c.LeaderboardDebounceMS)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2 ,")
	t.Setenv("LEADERBOARD_DEBOUNCE_MS", "100")

	c := AppConfig{DBDriver: "mysql"}
	applyEnvOverrides(&c)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, []string{"a:1", "b:2"}, c.KafkaBrokers)
	assert.Equal(t, 100, c.LeaderboardDebounceMS)
}

func TestOpenDatabaseSQLite(t *testing.T) {
	c := AppConfig{DBDriver: "sqlite", DatabaseURI: filepath.Join(t.TempDir(), "t.db"), LogLevel: "silent"}
	conn, err := OpenDatabase(c)
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	assert.NoError(t, sqlDB.Ping())
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}
