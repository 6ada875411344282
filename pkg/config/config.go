package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev_secret"
)

type Config struct {
	AppName   string
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Dispatch      DispatchConfig
	Notifications NotificationConfig
	Realtime      RealtimeConfig
	Contacts      ContactsConfig
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
	ConnLifetime time.Duration
	ConnIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DispatchConfig sizes the side-effect worker pool.
type DispatchConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NotificationConfig controls outbound complaint notices.
type NotificationConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	PublicURL    string
	RatePerSec   float64
	Burst        int
}

// RealtimeConfig controls live subscriber fan-out.
type RealtimeConfig struct {
	UseRedis    bool
	TopicPrefix string
	SendBuffer  int
}

// ContactsConfig tunes the contact address cache.
type ContactsConfig struct {
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

	cfg.AppName = v.GetString("APP_NAME")
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
		ConnLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnIdleTime: parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dispatch = DispatchConfig{
		Workers:    v.GetInt("DISPATCH_WORKERS"),
		BufferSize: v.GetInt("DISPATCH_BUFFER_SIZE"),
		MaxRetries: v.GetInt("DISPATCH_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("DISPATCH_RETRY_DELAY"), 2*time.Second),
		Timeout:    parseDuration(v.GetString("DISPATCH_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:      v.GetBool("ENABLE_NOTIFICATIONS"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		From:         v.GetString("NOTIFY_FROM"),
		PublicURL:    strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		RatePerSec:   v.GetFloat64("NOTIFY_RATE_PER_SEC"),
		Burst:        v.GetInt("NOTIFY_BURST"),
	}

	cfg.Realtime = RealtimeConfig{
		UseRedis:    v.GetBool("REALTIME_USE_REDIS"),
		TopicPrefix: v.GetString("REALTIME_TOPIC_PREFIX"),
		SendBuffer:  v.GetInt("REALTIME_SEND_BUFFER"),
	}

	cfg.Contacts = ContactsConfig{
		CacheTTL: parseDuration(v.GetString("CONTACTS_CACHE_TTL"), 10*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects settings the process cannot run with.
func (c *Config) validate() error {
	var problems []error
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == devJWTSecret) {
		problems = append(problems, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Dispatch.Workers < 1 {
		problems = append(problems, fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.Dispatch.Workers))
	}
	if c.Dispatch.BufferSize < 1 {
		problems = append(problems, fmt.Errorf("DISPATCH_BUFFER_SIZE must be at least 1, got %d", c.Dispatch.BufferSize))
	}
	if c.Dispatch.MaxRetries < 0 {
		problems = append(problems, fmt.Errorf("DISPATCH_MAX_RETRIES must not be negative, got %d", c.Dispatch.MaxRetries))
	}
	if c.Realtime.TopicPrefix == "" {
		problems = append(problems, errors.New("REALTIME_TOPIC_PREFIX must not be empty"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "community-complaint-api")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "community_complaints")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_BUFFER_SIZE", 256)
	v.SetDefault("DISPATCH_MAX_RETRIES", 0)
	v.SetDefault("DISPATCH_RETRY_DELAY", "2s")
	v.SetDefault("DISPATCH_TIMEOUT", "10s")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("NOTIFY_FROM", "no-reply@community.local")
	v.SetDefault("PUBLIC_URL", "http://localhost:3000")
	v.SetDefault("NOTIFY_RATE_PER_SEC", 5)
	v.SetDefault("NOTIFY_BURST", 10)

	v.SetDefault("REALTIME_USE_REDIS", false)
	v.SetDefault("REALTIME_TOPIC_PREFIX", "complaints")
	v.SetDefault("REALTIME_SEND_BUFFER", 64)

	v.SetDefault("CONTACTS_CACHE_TTL", "10m")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
