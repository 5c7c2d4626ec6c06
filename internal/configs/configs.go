package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppURL                     string
	DatabaseDSN                string
	RedisAddr                  string
	RedisKeyPrefix             string
	JSONBinBaseURL             string
	JSONBinAPIKey              string
	RemoteTimeoutSeconds       int
	SyncPollIntervalSeconds    int
	ConnectivityProbeAddr      string
	ConnectivityCacheSeconds   int
	ConnectivityProbeTimeoutMs int
	RateLimit                  int
	ShutdownTimeoutSeconds     int
	Timezone                   string
	BinServerURL               string
	BinServerDSN               string
	Logger                     LoggerConfig
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "127.0.0.1")
	v.SetDefault("app_port", "8080")
	v.SetDefault("database_dsn", "easyplan.db")
	v.SetDefault("redis_host", "127.0.0.1")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_key_prefix", "users")
	v.SetDefault("jsonbin_base_url", "https://api.jsonbin.io/v3")
	v.SetDefault("jsonbin_api_key", "")
	v.SetDefault("remote_timeout_seconds", 30)
	v.SetDefault("sync_poll_interval_seconds", 15)
	v.SetDefault("connectivity_probe_addr", "")
	v.SetDefault("connectivity_cache_seconds", 5)
	v.SetDefault("connectivity_probe_timeout_ms", 1500)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("shutdown_timeout_seconds", 20)
	v.SetDefault("timezone", "Local")
	v.SetDefault("binserver_host", "127.0.0.1")
	v.SetDefault("binserver_port", "9090")
	v.SetDefault("binserver_dsn", "bins.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_mode", "production")
	v.SetDefault("log_encoding", "console")
	v.SetDefault("log_color", false)
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	redisAddr := fmt.Sprintf("%s:%s", v.GetString("redis_host"), v.GetString("redis_port"))
	probe := v.GetString("connectivity_probe_addr")
	if probe == "" {
		probe = redisAddr
	}

	cfg := Config{
		AppURL:                     fmt.Sprintf("%s:%s", v.GetString("app_host"), v.GetString("app_port")),
		DatabaseDSN:                v.GetString("database_dsn"),
		RedisAddr:                  redisAddr,
		RedisKeyPrefix:             v.GetString("redis_key_prefix"),
		JSONBinBaseURL:             strings.TrimRight(v.GetString("jsonbin_base_url"), "/"),
		JSONBinAPIKey:              v.GetString("jsonbin_api_key"),
		RemoteTimeoutSeconds:       v.GetInt("remote_timeout_seconds"),
		SyncPollIntervalSeconds:    v.GetInt("sync_poll_interval_seconds"),
		ConnectivityProbeAddr:      probe,
		ConnectivityCacheSeconds:   v.GetInt("connectivity_cache_seconds"),
		ConnectivityProbeTimeoutMs: v.GetInt("connectivity_probe_timeout_ms"),
		RateLimit:                  v.GetInt("rate_limit_per_minute"),
		ShutdownTimeoutSeconds:     v.GetInt("shutdown_timeout_seconds"),
		Timezone:                   v.GetString("timezone"),
		BinServerURL:               fmt.Sprintf("%s:%s", v.GetString("binserver_host"), v.GetString("binserver_port")),
		BinServerDSN:               v.GetString("binserver_dsn"),
		Logger: LoggerConfig{
			Level:        v.GetString("log_level"),
			Mode:         v.GetString("log_mode"),
			Encoding:     v.GetString("log_encoding"),
			ColorEnabled: v.GetBool("log_color"),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.RemoteTimeoutSeconds <= 0 {
		return errors.New("REMOTE_TIMEOUT_SECONDS must be greater than 0")
	}
	if cfg.SyncPollIntervalSeconds <= 0 {
		return errors.New("SYNC_POLL_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.ConnectivityCacheSeconds < 0 {
		return errors.New("CONNECTIVITY_CACHE_SECONDS must not be negative")
	}
	if cfg.ConnectivityProbeTimeoutMs <= 0 {
		return errors.New("CONNECTIVITY_PROBE_TIMEOUT_MS must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return nil
}

func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSeconds) * time.Second
}

func (c Config) SyncPollInterval() time.Duration {
	return time.Duration(c.SyncPollIntervalSeconds) * time.Second
}

func (c Config) ConnectivityCacheTTL() time.Duration {
	return time.Duration(c.ConnectivityCacheSeconds) * time.Second
}

func (c Config) ConnectivityProbeTimeout() time.Duration {
	return time.Duration(c.ConnectivityProbeTimeoutMs) * time.Millisecond
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
