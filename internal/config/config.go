package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Email    EmailConfig    `mapstructure:"email"`
	Sla      SlaConfig      `mapstructure:"sla"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	ThresholdTTL time.Duration `mapstructure:"threshold_ttl"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	SMTP     struct {
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		TLS        bool   `mapstructure:"tls"`
		SkipVerify bool   `mapstructure:"skip_verify"`
	} `mapstructure:"smtp"`
}

// SlaConfig tunes the compliance engine itself.
type SlaConfig struct {
	// Schedule is the cron expression driving evaluation cycles.
	Schedule string `mapstructure:"schedule"`
	// WarningWindow is the minimum remaining time for a pending milestone
	// to still be reported green; below it the severity turns orange.
	WarningWindow time.Duration `mapstructure:"warning_window"`
	// NotifyTimeout bounds each outbound notification or cancellation call.
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
	BatchLimit    int           `mapstructure:"batch_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load initializes the configuration with hot reload support
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(configPath)

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", err)
				return
			}
			// No file is fine; defaults plus env vars apply.
			err = nil
		}

		v.SetEnvPrefix("RSA")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		newCfg := &Config{}
		if err = v.Unmarshal(newCfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		cfg = newCfg

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloaded := &Config{}
			if uerr := v.Unmarshal(reloaded); uerr != nil {
				fmt.Printf("Failed to reload config from %s: %v\n", e.Name, uerr)
				return
			}
			mu.Lock()
			cfg = reloaded
			mu.Unlock()
		})
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rsa-crm-sla-engine")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.timezone", "Asia/Kolkata")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "rsa:sla:")
	v.SetDefault("redis.threshold_ttl", "5m")
	v.SetDefault("sla.schedule", "*/5 * * * *")
	v.SetDefault("sla.warning_window", "30m")
	v.SetDefault("sla.notify_timeout", "10s")
	v.SetDefault("sla.batch_limit", 500)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Set replaces the current configuration. Intended for tests.
func Set(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// DSN builds the MySQL connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Addr returns the host:port pair for the Redis connection.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Location resolves the configured timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}
