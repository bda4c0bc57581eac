package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Staleness StalenessConfig `mapstructure:"staleness"`
	JobSweep  JobSweepConfig  `mapstructure:"job_sweep"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	InternalAPIKey string      `mapstructure:"internal_api_key"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CacheConfig holds Result Cache configuration
type CacheConfig struct {
	URL               string        `mapstructure:"url"`
	ExpirationSeconds int           `mapstructure:"expiration_seconds"`
}

// TTL returns the configured cache expiration as a time.Duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

// ScraperConfig holds Source Adapter tuning
type ScraperConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	DefaultHeaders  string `mapstructure:"default_headers"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// Timeout returns the configured scraper timeout as a time.Duration.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// StalenessConfig holds the freshness threshold the Coordinator uses to
// decide whether to launch a background refresh.
type StalenessConfig struct {
	ThresholdSeconds int `mapstructure:"threshold_seconds"`
}

// Threshold returns the configured staleness threshold as a time.Duration.
func (s StalenessConfig) Threshold() time.Duration {
	return time.Duration(s.ThresholdSeconds) * time.Second
}

// JobSweepConfig holds the stale-job sweeper's tuning.
type JobSweepConfig struct {
	MaxAgeSeconds  int `mapstructure:"max_age_seconds"`
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// MaxAge returns the configured max job age as a time.Duration.
func (j JobSweepConfig) MaxAge() time.Duration {
	return time.Duration(j.MaxAgeSeconds) * time.Second
}

// Interval returns the configured sweep interval as a time.Duration.
func (j JobSweepConfig) Interval() time.Duration {
	return time.Duration(j.IntervalSeconds) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// CORSConfig holds the cross-origin configuration the public search
// endpoint honors, mirroring the original service's BACKEND_CORS_ORIGINS.
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Origins splits the configured comma-separated origin list, trimming
// whitespace and dropping empty entries the way the original service's
// CORS setup handles a loosely-formatted BACKEND_CORS_ORIGINS value.
func (c CORSConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file (parsed by loadDotEnvFile below)
	if err := loadEnvFile(v); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("SEARCH_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads .env file by parsing KEY=VALUE lines and setting them as environment variables
func loadEnvFile(v *viper.Viper) error {
	// Try to load .env file from various locations
	envPaths := []string{
		".",
		"../../..", // From services/search-service to workspace root
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			// Parse .env file and set environment variables
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Remove quotes if present
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("cache.url", "CACHE_URL")
	v.BindEnv("cache.expiration_seconds", "CACHE_EXPIRATION_SECONDS")
	v.BindEnv("scraper.timeout_seconds", "SCRAPER_TIMEOUT_SECONDS")
	v.BindEnv("scraper.default_headers", "SCRAPER_DEFAULT_HEADERS")
	v.BindEnv("staleness.threshold_seconds", "STALENESS_THRESHOLD_SECONDS")
	v.BindEnv("job_sweep.max_age_seconds", "JOB_SWEEP_MAX_AGE_SECONDS")
	v.BindEnv("job_sweep.interval_seconds", "JOB_SWEEP_INTERVAL_SECONDS")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.internal_api_key", "INTERNAL_API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")

	v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Cache defaults
	v.SetDefault("cache.expiration_seconds", 3600)

	// Scraper defaults
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.default_headers", "Mozilla/5.0 (compatible; SearchServiceBot/1.0)")
	v.SetDefault("scraper.requests_per_second", 2.0)

	// Staleness defaults
	v.SetDefault("staleness.threshold_seconds", 3600)

	// Job sweep defaults
	v.SetDefault("job_sweep.max_age_seconds", 1800)
	v.SetDefault("job_sweep.interval_seconds", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// CORS defaults: empty means no cross-origin access, matching the
	// original service's behavior when BACKEND_CORS_ORIGINS is unset.
	v.SetDefault("cors.allowed_origins", "")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
