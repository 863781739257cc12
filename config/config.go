package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	DefaultGroupID     string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for leaderboard caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Kafka analytics sink; disabled when no brokers are set
	KafkaBrokers        []string
	KafkaAnalyticsTopic string
	// Leaderboard
	LeaderboardDebounceMS   int
	LeaderboardCacheSeconds int
	// Shoutbox
	ShoutboxMaxLength      int
	ShoutboxPageSize       int
	ShoutboxPostsPerMinute int
	// Admins
	AdminUsernames []string
}

// DefaultConfigPath is read when no explicit path is given.
const DefaultConfigPath = "config/config.json"

var cfg AppConfig
var loaded bool

// Load loads the application configuration from DefaultConfigPath and the environment.
func Load() AppConfig {
	return LoadFrom("")
}

// LoadFrom loads configuration from path (JSON or YAML, by extension) and the environment.
// It should be called once during boot.
func LoadFrom(path string) AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config file -> defaults -> environment variable overrides
	if path == "" {
		path = DefaultConfigPath
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join("config", "config.yaml")
		}
	}
	if err := loadConfigFile(path, &cfg); err != nil {
		log.Fatalf("invalid config file %s: %v", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Zero values are filled with defaults.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadConfigFile reads a JSON or YAML file into out if present. Returns error only for invalid content.
func loadConfigFile(path string, out *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return err
	}
	applyRaw(raw, out)
	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getInt accepts float64 (JSON) and int (YAML) numbers.
func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

func section(raw map[string]any, name string) (map[string]any, bool) {
	m, ok := raw[name].(map[string]any)
	return m, ok
}

// applyRaw maps grouped sections of a decoded config file onto out.
func applyRaw(raw map[string]any, out *AppConfig) {
	if app, ok := section(raw, "app"); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getString(app, "DefaultGroupID"); v != "" {
			out.DefaultGroupID = v
		}
	}

	if g, ok := section(raw, "gin"); ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if dbs, ok := section(raw, "database"); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := section(raw, "redis"); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := section(raw, "log"); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getString(lg, "GinMode"); v != "" {
			out.GinMode = v
		}
		if v := getString(lg, "GinPath"); v != "" {
			out.GinPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	if kf, ok := section(raw, "kafka"); ok {
		if list := getStringSlice(kf, "Brokers"); len(list) > 0 {
			out.KafkaBrokers = list
		}
		out.KafkaAnalyticsTopic = getString(kf, "AnalyticsTopic")
	}

	if lb, ok := section(raw, "leaderboard"); ok {
		out.LeaderboardDebounceMS = getInt(lb, "DebounceMS")
		out.LeaderboardCacheSeconds = getInt(lb, "CacheSeconds")
	}

	if sb, ok := section(raw, "shoutbox"); ok {
		out.ShoutboxMaxLength = getInt(sb, "MaxLength")
		out.ShoutboxPageSize = getInt(sb, "PageSize")
		out.ShoutboxPostsPerMinute = getInt(sb, "PostsPerMinute")
	}

	if adm, ok := section(raw, "admin"); ok {
		if list := getStringSlice(adm, "Usernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	// flat keys for backward compatibility
	if out.AppPort == "" {
		out.AppPort = getString(raw, "AppPort")
	}
	if out.JWTSecret == "" {
		out.JWTSecret = getString(raw, "JWTSecret")
	}
	if out.DatabaseURI == "" {
		out.DatabaseURI = getString(raw, "DatabaseURI")
	}
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DefaultGroupID == "" {
		c.DefaultGroupID = "global"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "matlog"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.KafkaAnalyticsTopic == "" {
		c.KafkaAnalyticsTopic = "matlog.analytics"
	}
	if c.LeaderboardDebounceMS == 0 {
		c.LeaderboardDebounceMS = 500
	}
	if c.LeaderboardCacheSeconds == 0 {
		c.LeaderboardCacheSeconds = 300
	}
	if c.ShoutboxMaxLength == 0 {
		c.ShoutboxMaxLength = 500
	}
	if c.ShoutboxPageSize == 0 {
		c.ShoutboxPageSize = 50
	}
	if c.ShoutboxPostsPerMinute == 0 {
		c.ShoutboxPostsPerMinute = 20
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
	if v := getEnv("DEFAULT_GROUP_ID", ""); v != "" {
		c.DefaultGroupID = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
	c.KafkaBrokers = readListEnv("KAFKA_BROKERS", c.KafkaBrokers)
	if v := getEnv("KAFKA_ANALYTICS_TOPIC", ""); v != "" {
		c.KafkaAnalyticsTopic = v
	}
	if v := getEnv("LEADERBOARD_DEBOUNCE_MS", ""); v != "" {
		c.LeaderboardDebounceMS = mustParseInt(v)
	}
	if v := getEnv("LEADERBOARD_CACHE_SECONDS", ""); v != "" {
		c.LeaderboardCacheSeconds = mustParseInt(v)
	}
	if v := getEnv("SHOUTBOX_MAX_LENGTH", ""); v != "" {
		c.ShoutboxMaxLength = mustParseInt(v)
	}
	if v := getEnv("SHOUTBOX_PAGE_SIZE", ""); v != "" {
		c.ShoutboxPageSize = mustParseInt(v)
	}
	if v := getEnv("SHOUTBOX_POSTS_PER_MINUTE", ""); v != "" {
		c.ShoutboxPostsPerMinute = mustParseInt(v)
	}
	c.AdminUsernames = readListEnv("ADMIN_USERNAMES", c.AdminUsernames)
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
