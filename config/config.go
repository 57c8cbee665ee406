package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	SensorPush SensorPushConfig `yaml:"sensorpush"`
	Push       PushConfig       `yaml:"push"`
	Reminders  RemindersConfig  `yaml:"reminders"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
}

// AuthConfig holds the session token settings.
type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// SensorPushConfig holds the settings for the SensorPush integration.
type SensorPushConfig struct {
	Enabled               bool          `yaml:"enabled"`
	BaseURL               string        `yaml:"base_url"`
	PollIntervalMinutes   int           `yaml:"poll_interval_minutes"`
	PollInterval          time.Duration `yaml:"-"` // Ignored by YAML parser
	RateLimitSeconds      int           `yaml:"rate_limit_seconds"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// RemindersConfig holds the configuration for the task reminder scheduler.
type RemindersConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	WorkerPoolSize  int  `yaml:"worker_pool_size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Auth.SessionTTLMinutes <= 0 {
		cfg.Auth.SessionTTLMinutes = 60
	}

	if cfg.SensorPush.BaseURL == "" {
		cfg.SensorPush.BaseURL = "https://api.sensorpush.com/api/v1"
	}
	if cfg.SensorPush.PollIntervalMinutes <= 0 {
		cfg.SensorPush.PollIntervalMinutes = 15
	}
	cfg.SensorPush.PollInterval = time.Duration(cfg.SensorPush.PollIntervalMinutes) * time.Minute
	if cfg.SensorPush.RateLimitSeconds <= 0 {
		cfg.SensorPush.RateLimitSeconds = 60
	}
	if cfg.SensorPush.RequestTimeoutSeconds <= 0 {
		cfg.SensorPush.RequestTimeoutSeconds = 15
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Reminders.IntervalSeconds <= 0 {
		cfg.Reminders.IntervalSeconds = 60
	}
	if cfg.Reminders.WorkerPoolSize <= 0 {
		log.Printf("reminders.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Reminders.WorkerPoolSize = 1
	}

	return &cfg, nil
}
