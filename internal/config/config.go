package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type AppConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Algorithm  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthConfig carries the ordered whitelist of paths served without
// authentication. See auth.NewWhitelist for the rule grammar.
type AuthConfig struct {
	Whitelist []string
}

type Config struct {
	AppConfig   *AppConfig
	DbConfig    *DbConfig
	RedisConfig *RedisConfig
	JWTConfig   *JWTConfig
	AuthConfig  *AuthConfig
}

// LoadConfig reads the process environment (optionally seeded from a .env
// file) once at startup. Reconfiguration requires a restart.
func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	/** db config */
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return nil, errors.New("POSTGRES_DSN is not set")
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 20)
	if err != nil {
		return nil, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	maxConnLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	dbConfig := &DbConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		MaxConnLifetime: maxConnLifetime,
	}

	/** app config */
	readTimeout, err := envDuration("APP_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := envDuration("APP_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := envDuration("APP_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Port:            envStr("APP_PORT", "8080"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}

	/** redis config */
	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	redisConfig := &RedisConfig{
		Addr:     envStr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	/** jwt config */
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	accessTTL, err := envDuration("JWT_ACCESS_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := envDuration("JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	jwtConfig := &JWTConfig{
		Secret:     secret,
		Algorithm:  envStr("JWT_ALG", "HS256"),
		Issuer:     envStr("JWT_ISSUER", "giftserve"),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}

	/** auth config */
	authConfig := &AuthConfig{
		Whitelist: splitList(envStr("AUTH_WHITELIST", "/api/login,/api/register,/api/refresh,^/media/")),
	}

	return &Config{
		AppConfig:   appConfig,
		DbConfig:    dbConfig,
		RedisConfig: redisConfig,
		JWTConfig:   jwtConfig,
		AuthConfig:  authConfig,
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
