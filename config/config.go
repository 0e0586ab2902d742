package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	LogFile                 string        `mapstructure:"LOG_FILE"`
	WebPort                 int           `mapstructure:"WEB_PORT"`
	RecommendBaseURL        string        `mapstructure:"RECOMMEND_BASE_URL"`
	RecommendTimeout        time.Duration `mapstructure:"RECOMMEND_TIMEOUT"`
	RecommendMaxAttempts    int           `mapstructure:"RECOMMEND_MAX_ATTEMPTS"`
	RecommendRetryDelay     time.Duration `mapstructure:"RECOMMEND_RETRY_DELAY"`
	SessionDiscardStale     bool          `mapstructure:"SESSION_DISCARD_STALE"`
	MaxBrowserSessions      int           `mapstructure:"MAX_BROWSER_SESSIONS"`
	SessionIdleTimeout      time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	CleanupEnabled          bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupInterval         time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	RateLimitMessagesPerMin int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
}

// Load reads .env, config.yaml and the environment into a Config.
// Durations are configured as plain integers (seconds or minutes, see below).
func Load(logger *zap.Logger) *Config {
	// Variables already present in the environment take precedence over .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) && logger != nil {
		logger.Warn("Could not read .env file", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Debug("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.normalize()
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("WEB_PORT", 8080)
	v.SetDefault("RECOMMEND_BASE_URL", "")
	v.SetDefault("RECOMMEND_TIMEOUT", 120)
	v.SetDefault("RECOMMEND_MAX_ATTEMPTS", 3)
	v.SetDefault("RECOMMEND_RETRY_DELAY", 2)
	v.SetDefault("SESSION_DISCARD_STALE", true)
	v.SetDefault("MAX_BROWSER_SESSIONS", 1024)
	v.SetDefault("SESSION_IDLE_TIMEOUT", 60)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("CLEANUP_INTERVAL", 10)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
}

func (c *Config) normalize() {
	c.RecommendBaseURL = strings.TrimRight(strings.TrimSpace(c.RecommendBaseURL), "/")
	if c.RecommendMaxAttempts < 1 {
		c.RecommendMaxAttempts = 1
	}
	if c.MaxBrowserSessions < 1 {
		c.MaxBrowserSessions = 1
	}

	// Convert seconds/minutes to proper time.Duration
	c.RecommendTimeout = c.RecommendTimeout * time.Second
	c.RecommendRetryDelay = c.RecommendRetryDelay * time.Second
	c.SessionIdleTimeout = c.SessionIdleTimeout * time.Minute
	c.CleanupInterval = c.CleanupInterval * time.Minute
}

// DefaultServiceBaseURL is where the recommendation service listens when run
// locally next to the front end.
const DefaultServiceBaseURL = "http://localhost:8000"

// ServiceBaseURL returns the recommendation service base URL, falling back to
// DefaultServiceBaseURL when none is configured.
func (c *Config) ServiceBaseURL() string {
	if c.RecommendBaseURL != "" {
		return c.RecommendBaseURL
	}
	return DefaultServiceBaseURL
}
