package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	BotToken           string           `yaml:"bot_token"`
	PollTimeoutSeconds int              `yaml:"poll_timeout_seconds"`
	ShutdownGrace      time.Duration    `yaml:"shutdown_grace"`
	Log                LogConfig        `yaml:"log"`
	Storage            StorageConfig    `yaml:"storage"`
	Redis              RedisConfig      `yaml:"redis"`
	Moderation         ModerationConfig `yaml:"moderation"`
	HTTP               HTTPConfig       `yaml:"http"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	DatabaseURL string `yaml:"database_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ModerationConfig struct {
	MaxInFlight      int           `yaml:"max_inflight"`
	NotifyCooldown   time.Duration `yaml:"notify_cooldown"`
	VerdictTTL       time.Duration `yaml:"verdict_ttl"`
	VerdictCacheSize int           `yaml:"verdict_cache_size"`
	DetectIPv4       bool          `yaml:"detect_ipv4"`
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func Default() Config {
	return Config{
		PollTimeoutSeconds: 30,
		ShutdownGrace:      10 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Driver:     StorageSQLite,
			SQLitePath: "user_data/bio_links.db",
		},
		Moderation: ModerationConfig{
			MaxInFlight:      16,
			NotifyCooldown:   time.Hour,
			VerdictCacheSize: 10000,
			DetectIPv4:       true,
			MaxRateLimitWait: time.Minute,
		},
		HTTP: HTTPConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Load reads defaults, then the YAML file named by CONFIG_PATH (if any),
// then environment overrides.
func Load() (Config, error) {
	return LoadFile(getString("CONFIG_PATH", ""))
}

func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Storage.Driver = normalizeStorageDriver(cfg.Storage.Driver)
	if cfg.PollTimeoutSeconds <= 0 {
		cfg.PollTimeoutSeconds = 30
	}
	if cfg.Moderation.MaxInFlight <= 0 {
		cfg.Moderation.MaxInFlight = 16
	}
	if cfg.Moderation.VerdictCacheSize <= 0 {
		cfg.Moderation.VerdictCacheSize = 10000
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDryRun reports whether the bot runs without a Telegram connection.
func (c Config) IsDryRun() bool {
	return c.BotToken == ""
}

func (c Config) IsHTTPEnabled() bool {
	return c.HTTP.Addr != ""
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("STORAGE_DRIVER=sqlite requires SQLITE_PATH")
	}
	return nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v, _ := getFirstDefined([]string{"BOT_TOKEN", "TELEGRAM_BOT_TOKEN"}); v != "" {
		cfg.BotToken = v
	}

	var err error
	if cfg.PollTimeoutSeconds, err = getInt([]string{"POLL_TIMEOUT_SECONDS"}, cfg.PollTimeoutSeconds); err != nil {
		return err
	}
	if cfg.ShutdownGrace, err = getDuration("SHUTDOWN_GRACE", cfg.ShutdownGrace); err != nil {
		return err
	}

	cfg.Log.Level = getString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getString("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getString("LOG_FILE", cfg.Log.File)

	cfg.Storage.Driver = getString("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.SQLitePath = getString("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.DatabaseURL = getString("DATABASE_URL", cfg.Storage.DatabaseURL)

	cfg.Redis.Addr = getString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getString("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = getInt([]string{"REDIS_DB"}, cfg.Redis.DB); err != nil {
		return err
	}

	if cfg.Moderation.MaxInFlight, err = getInt([]string{"MAX_INFLIGHT"}, cfg.Moderation.MaxInFlight); err != nil {
		return err
	}
	if cfg.Moderation.NotifyCooldown, err = getDuration("NOTIFY_COOLDOWN", cfg.Moderation.NotifyCooldown); err != nil {
		return err
	}
	if cfg.Moderation.VerdictTTL, err = getDuration("VERDICT_TTL", cfg.Moderation.VerdictTTL); err != nil {
		return err
	}
	if cfg.Moderation.VerdictCacheSize, err = getInt([]string{"VERDICT_CACHE_SIZE"}, cfg.Moderation.VerdictCacheSize); err != nil {
		return err
	}
	if cfg.Moderation.DetectIPv4, err = getBool([]string{"DETECT_IPV4"}, cfg.Moderation.DetectIPv4); err != nil {
		return err
	}
	if cfg.Moderation.MaxRateLimitWait, err = getDuration("MAX_RATE_LIMIT_WAIT", cfg.Moderation.MaxRateLimitWait); err != nil {
		return err
	}

	cfg.HTTP.Addr = getString("HTTP_ADDR", cfg.HTTP.Addr)
	return nil
}

func normalizeStorageDriver(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "memory", "mem", "inmemory":
		return StorageMemory
	case "postgres", "postgresql", "pg":
		return StoragePostgres
	case "", "sqlite", "sqlite3":
		return StorageSQLite
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func getString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getInt(keys []string, fallback int) (int, error) {
	raw, key := getFirstDefined(keys)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getBool(keys []string, fallback bool) (bool, error) {
	raw, key := getFirstDefined(keys)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

// getDuration accepts Go durations ("90s", "1h") and plain seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getString(key, "")
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s duration: %w", key, err)
	}
	return value, nil
}

func getFirstDefined(keys []string) (string, string) {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value, key
		}
	}
	if len(keys) == 0 {
		return "", ""
	}
	return "", keys[0]
}
