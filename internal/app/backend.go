package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/contactbook/internal/config"
	"github.com/hitoshi/contactbook/internal/database"
	"github.com/hitoshi/contactbook/internal/repository"
	"github.com/redis/go-redis/v9"
)

// backend は選択されたKVストアとその解放処理。
type backend struct {
	kv    repository.KVStore
	close func() error
}

// openBackend は設定に応じたKVストアを開き、疎通を確認する。
// postgresの場合はkv_storeテーブルのDDLマイグレーションも適用する。
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return openPostgres(ctx, cfg)
	case config.BackendRedis:
		return openRedis(ctx, cfg)
	default:
		slog.Warn("using in-memory store; data is lost on restart")
		return &backend{
			kv:    repository.NewMemoryKVRepo(),
			close: func() error { return nil },
		}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*backend, error) {
	redacted := database.RedactURL(cfg.DatabaseURL)

	slog.Info("running database migrations", slog.String("database_url", redacted))
	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		return nil, err
	}

	slog.Info("database connection established",
		slog.String("database_url", redacted),
		slog.Uint64("ddl_version", uint64(version)),
	)
	return &backend{
		kv:    repository.NewPostgresKVRepo(db),
		close: db.Close,
	}, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)
	return &backend{
		kv:    repository.NewRedisKVRepo(client, cfg.RedisKeyPrefix),
		close: client.Close,
	}, nil
}
