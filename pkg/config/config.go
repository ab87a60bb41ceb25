package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	minSecretLength = 32
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Version   string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Swagger   SwaggerConfig
	Mail      MailConfig
	Auth      AuthConfig
	Import    ImportConfig
	Stats     StatsConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// DSN returns DATABASE_URL when set and a key/value DSN built from the parts otherwise.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig caps requests per client within a fixed window.
type RateLimitConfig struct {
	TTL time.Duration
	Max int
}

type LogConfig struct {
	Level  string
	Format string
}

type SwaggerConfig struct {
	Enabled bool
}

// MailConfig configures outbound SMTP delivery.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Workers  int
}

// AuthConfig tunes the password reset flow.
type AuthConfig struct {
	ResetTokenTTL    time.Duration
	ResetURLBase     string
	ExposeResetToken bool
}

type ImportConfig struct {
	MaxUploadBytes int64
}

type StatsConfig struct {
	CacheTTL time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	if _, ok := os.LookupEnv("ENV"); !ok {
		if nodeEnv := v.GetString("NODE_ENV"); nodeEnv != "" {
			cfg.Env = nodeEnv
		}
	}
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = normalisePrefix(v.GetString("API_PREFIX"))
	cfg.Version = v.GetString("APP_VERSION")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRES_IN"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: parseOrigins(v.GetString("CORS_ORIGIN"))}

	cfg.RateLimit = RateLimitConfig{
		TTL: parseSeconds(v.GetString("RATE_LIMIT_TTL"), time.Minute),
		Max: v.GetInt("RATE_LIMIT_MAX"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Swagger = SwaggerConfig{Enabled: v.GetBool("ENABLE_SWAGGER")}

	cfg.Mail = MailConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		User:     v.GetString("SMTP_USER"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		Workers:  v.GetInt("MAIL_WORKERS"),
	}

	cfg.Auth = AuthConfig{
		ResetTokenTTL:    parseDuration(v.GetString("RESET_TOKEN_TTL"), 15*time.Minute),
		ResetURLBase:     v.GetString("RESET_URL_BASE"),
		ExposeResetToken: v.GetBool("EXPOSE_RESET_TOKEN") && cfg.Env == EnvDevelopment,
	}

	maxUpload := v.GetInt64("CSV_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Import = ImportConfig{MaxUploadBytes: maxUpload}

	cfg.Stats = StatsConfig{CacheTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute)}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe to serve.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Env == EnvProduction && len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minSecretLength)
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_MAX %d", c.RateLimit.Max)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("APP_VERSION", "1.0.0")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "courseflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret_change_me_dev_secret_change_me")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("JWT_ISSUER", "courseflow-api")

	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("RATE_LIMIT_TTL", "60")
	v.SetDefault("RATE_LIMIT_MAX", 100)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_SWAGGER", true)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@courseflow.edu")
	v.SetDefault("MAIL_WORKERS", 2)

	v.SetDefault("RESET_TOKEN_TTL", "15m")
	v.SetDefault("RESET_URL_BASE", "http://localhost:3000/reset-password")
	v.SetDefault("EXPOSE_RESET_TOKEN", false)

	v.SetDefault("CSV_MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("STATS_CACHE_TTL", "5m")
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

// parseSeconds accepts either a bare number of seconds or a Go duration.
func parseSeconds(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}
	return parseDuration(raw, fallback)
}

// parseOrigins treats "*" as allow-all, which the CORS middleware expresses as an empty list.
func parseOrigins(raw string) []string {
	origins := splitAndTrim(raw)
	for _, origin := range origins {
		if origin == "*" {
			return nil
		}
	}
	return origins
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

func normalisePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
