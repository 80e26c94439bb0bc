package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Admin      AdminConfig      `mapstructure:"admin"`
}

// Telegram bot configuration
type BotConfig struct {
	Token    string        `mapstructure:"token"`
	Mode     string        `mapstructure:"mode"`
	Language string        `mapstructure:"language"`
	Webhook  WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
	Format    string            `mapstructure:"format"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// escalation and sanction settings
type ModerationConfig struct {
	MuteThreshold      int           `mapstructure:"mute_threshold"`
	MuteDuration       time.Duration `mapstructure:"mute_duration"`
	MinTextLength      int           `mapstructure:"min_text_length"`
	GatewayTimeout     time.Duration `mapstructure:"gateway_timeout"`
	GatewayConcurrency int           `mapstructure:"gateway_concurrency"`
}

// mute expiry job settings
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

type ClassifierConfig struct {
	Provider     string        `mapstructure:"provider"`
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	GeminiApiKey string        `mapstructure:"gemini_api_key"`
	GeminiModel  string        `mapstructure:"gemini_model"`
}

type StorageConfig struct {
	Backend   string         `mapstructure:"backend"`
	Directory string         `mapstructure:"directory"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Retry     RetryConfig    `mapstructure:"retry"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// optimistic-concurrency retry settings for the store
type RetryConfig struct {
	MaxRetries      uint64        `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// administrative console API
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Token   string `mapstructure:"token"`
}

// Storage backends
const (
	BackendFile     = "file"
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		log.Fatalf("unable to decode default config: %v", err)
	}
	return c
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	if c.Moderation.MuteThreshold < 1 {
		return fmt.Errorf("moderation.mute_threshold must be at least 1, got %d", c.Moderation.MuteThreshold)
	}
	if c.Moderation.MuteDuration <= 0 {
		return fmt.Errorf("moderation.mute_duration must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}

	switch c.Storage.Backend {
	case BackendFile, BackendDatabase, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Bot.Mode {
	case "webhook", "polling":
	default:
		return fmt.Errorf("unknown bot mode %q", c.Bot.Mode)
	}

	if c.Admin.Enabled && c.Admin.Token == "" {
		return fmt.Errorf("admin.token is required when the admin API is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.language", "id")
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")
	v.SetDefault("logger.format", "console")

	// 20 is the deployed value; older comments mention the 5th violation
	v.SetDefault("moderation.mute_threshold", 20)
	v.SetDefault("moderation.mute_duration", "6h")
	v.SetDefault("moderation.min_text_length", 5)
	v.SetDefault("moderation.gateway_timeout", "10s")
	v.SetDefault("moderation.gateway_concurrency", 4)

	v.SetDefault("scheduler.interval", "60s")
	v.SetDefault("scheduler.initial_delay", "10s")

	v.SetDefault("classifier.provider", "http")
	v.SetDefault("classifier.endpoint", "http://127.0.0.1:8000/predict")
	v.SetDefault("classifier.timeout", "15s")
	v.SetDefault("classifier.gemini_model", "gemini-1.5-flash")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.directory", "data")
	v.SetDefault("storage.database.port", 3306)
	v.SetDefault("storage.database.charset", "utf8mb4")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "antijudi:")
	v.SetDefault("storage.retry.max_retries", 5)
	v.SetDefault("storage.retry.initial_interval", "50ms")
	v.SetDefault("storage.retry.max_interval", "1s")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.listen", "127.0.0.1:8090")
}
