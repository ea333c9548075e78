package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	SequenceBackendDatabase = "database"
	SequenceBackendRedis    = "redis"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CartsConfig struct {
	DefaultCommission decimal.Decimal
	PublicBaseURL     string
	Currency          string
	SequenceBackend   string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Carts       CartsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7090)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("SEQUENCE_BACKEND", SequenceBackendDatabase)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CARTS_DEFAULT_COMMISSION_PERCENT", "10")
	v.SetDefault("CARTS_PUBLIC_BASE_URL", "http://localhost:7090")
	v.SetDefault("CARTS_CURRENCY", "USD")

	lifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	commission, err := decimal.NewFromString(strings.TrimSpace(v.GetString("CARTS_DEFAULT_COMMISSION_PERCENT")))
	if err != nil {
		return nil, fmt.Errorf("invalid CARTS_DEFAULT_COMMISSION_PERCENT: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: lifetime,
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Carts: CartsConfig{
			DefaultCommission: commission.Round(2),
			PublicBaseURL:     strings.TrimRight(v.GetString("CARTS_PUBLIC_BASE_URL"), "/"),
			Currency:          strings.ToUpper(strings.TrimSpace(v.GetString("CARTS_CURRENCY"))),
			SequenceBackend:   strings.ToLower(strings.TrimSpace(v.GetString("SEQUENCE_BACKEND"))),
		},
	}

	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Carts.DefaultCommission.IsNegative() {
		return fmt.Errorf("CARTS_DEFAULT_COMMISSION_PERCENT must not be negative")
	}
	switch cfg.Carts.SequenceBackend {
	case SequenceBackendDatabase:
	case SequenceBackendRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SEQUENCE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SEQUENCE_BACKEND %q", cfg.Carts.SequenceBackend)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
