package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultServerPort はSERVER_PORT未設定時の待ち受けポート。
const DefaultServerPort = "8080"

// ストレージバックエンドの種類
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Storage
	StoreBackend   string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// CORS
	CORSAllowedOrigin string

	// Rate Limit（リクエスト数/分）
	RateLimitGeneral int
	RateLimitLogin   int

	// 模擬ネットワーク遅延の上限。0で無効
	FakeLatencyMax time.Duration

	// Seed
	SeedSampleContacts bool
	UsersFile          string

	// Logging
	LogLevel string
}

// Load は.envファイル（存在する場合）と環境変数からConfigを読み込む。
// 既に設定済みの環境変数は.envの値で上書きしない。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		ServerPort:         getEnvString("SERVER_PORT", DefaultServerPort),
		StoreBackend:       strings.ToLower(getEnvString("STORE_BACKEND", BackendMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:     getEnvString("REDIS_KEY_PREFIX", "contactbook:"),
		CORSAllowedOrigin:  getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		RateLimitGeneral:   getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitLogin:     getEnvInt("RATE_LIMIT_LOGIN", 10),
		FakeLatencyMax:     getEnvDuration("FAKE_LATENCY_MAX", 0),
		SeedSampleContacts: getEnvBool("SEED_SAMPLE_CONTACTS", false),
		UsersFile:          os.Getenv("USERS_FILE"),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate はバックエンドごとの必須項目と数値の範囲を検証する。
// 問題が複数ある場合はすべてをまとめて返す。
func (c *Config) validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when STORE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q (want memory, postgres or redis)", c.StoreBackend))
	}

	if port, err := strconv.Atoi(c.ServerPort); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid SERVER_PORT %q", c.ServerPort))
	}
	if c.RateLimitGeneral <= 0 || c.RateLimitLogin <= 0 {
		errs = append(errs, fmt.Errorf("rate limits must be positive: general=%d login=%d", c.RateLimitGeneral, c.RateLimitLogin))
	}
	if c.FakeLatencyMax < 0 {
		errs = append(errs, fmt.Errorf("FAKE_LATENCY_MAX must not be negative: %v", c.FakeLatencyMax))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must not be negative: %d", c.RedisDB))
	}

	return errors.Join(errs...)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
