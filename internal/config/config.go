package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	CORSOrigins string

	DatabaseURL       string
	DatabaseMaxOpen   int
	DatabaseMaxIdle   int
	DatabaseConnLife  time.Duration
	DatabaseMigrate   bool
	RedisURL          string
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	StatusCacheTTL    time.Duration
	DefaultMaxGrade   int
	DefaultPassGrade  int
	GradingRateLimit  int
	GradingRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}
	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from COHORT_* environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COHORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "Cohort Progress API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.cors_origins", "*")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.conn_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("nats.subject", "cohort.progress")
	v.SetDefault("status.cache_ttl", "10m")
	v.SetDefault("grading.default_max_grade", 2)
	v.SetDefault("grading.default_pass_grade", 0)
	v.SetDefault("rate_limit.grading_per_minute", 60)

	cacheTTL, err := parseDuration(v, "status.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	connLife, err := parseDuration(v, "database.conn_lifetime")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		CORSOrigins:       v.GetString("app.cors_origins"),
		DatabaseURL:       v.GetString("database.url"),
		DatabaseMaxOpen:   v.GetInt("database.max_open"),
		DatabaseMaxIdle:   v.GetInt("database.max_idle"),
		DatabaseConnLife:  connLife,
		DatabaseMigrate:   v.GetBool("database.auto_migrate"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		StatusCacheTTL:    cacheTTL,
		DefaultMaxGrade:   v.GetInt("grading.default_max_grade"),
		DefaultPassGrade:  v.GetInt("grading.default_pass_grade"),
		GradingRateLimit:  v.GetInt("rate_limit.grading_per_minute"),
		GradingRateWindow: time.Minute,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DefaultMaxGrade < 1 {
		return Config{}, fmt.Errorf("grading.default_max_grade must be positive, got %d", cfg.DefaultMaxGrade)
	}
	if cfg.DefaultPassGrade < 0 || cfg.DefaultPassGrade > cfg.DefaultMaxGrade {
		return Config{}, fmt.Errorf("grading.default_pass_grade must be within 0..%d", cfg.DefaultMaxGrade)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
