package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
	Export   ExportConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig tunes the study plan generator defaults. Request values,
// when present, override these.
type PlannerConfig struct {
	MinSessionMinutes      int
	MaxSessionMinutes      int
	RevisionPercentage     int
	DefaultStrategy        string
	DefaultWindowStart     string
	DefaultWindowEnd       string
	MaxPlacementAttempts   int
	DailyLoadFactor        float64
	FallbackMinutesFloor   int
}

// ExportConfig governs plan export rendering.
type ExportConfig struct {
	Enabled      bool
	PDFPageLimit int
}

// CacheConfig governs read-through caching of plan summaries.
type CacheConfig struct {
	Enabled bool
	PlanTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		MinSessionMinutes:    v.GetInt("PLANNER_MIN_SESSION_MINUTES"),
		MaxSessionMinutes:    v.GetInt("PLANNER_MAX_SESSION_MINUTES"),
		RevisionPercentage:   v.GetInt("PLANNER_REVISION_PERCENTAGE"),
		DefaultStrategy:      v.GetString("PLANNER_DEFAULT_STRATEGY"),
		DefaultWindowStart:   v.GetString("PLANNER_DEFAULT_WINDOW_START"),
		DefaultWindowEnd:     v.GetString("PLANNER_DEFAULT_WINDOW_END"),
		MaxPlacementAttempts: v.GetInt("PLANNER_MAX_PLACEMENT_ATTEMPTS"),
		DailyLoadFactor:      v.GetFloat64("PLANNER_DAILY_LOAD_FACTOR"),
		FallbackMinutesFloor: v.GetInt("PLANNER_FALLBACK_MINUTES_FLOOR"),
	}

	cfg.Export = ExportConfig{
		Enabled:      v.GetBool("ENABLE_EXPORTS"),
		PDFPageLimit: v.GetInt("EXPORT_PDF_PAGE_LIMIT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_PLAN_CACHE"),
		PlanTTL: parseDuration(v.GetString("PLAN_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "smart_plan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_MIN_SESSION_MINUTES", 30)
	v.SetDefault("PLANNER_MAX_SESSION_MINUTES", 120)
	v.SetDefault("PLANNER_REVISION_PERCENTAGE", 30)
	v.SetDefault("PLANNER_DEFAULT_STRATEGY", "next-available")
	v.SetDefault("PLANNER_DEFAULT_WINDOW_START", "18:00")
	v.SetDefault("PLANNER_DEFAULT_WINDOW_END", "20:00")
	v.SetDefault("PLANNER_MAX_PLACEMENT_ATTEMPTS", 14)
	v.SetDefault("PLANNER_DAILY_LOAD_FACTOR", 0.7)
	v.SetDefault("PLANNER_FALLBACK_MINUTES_FLOOR", 60)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_PDF_PAGE_LIMIT", 0)

	v.SetDefault("ENABLE_PLAN_CACHE", true)
	v.SetDefault("PLAN_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
