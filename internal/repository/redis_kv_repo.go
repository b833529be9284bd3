package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ KVStore = (*RedisKVRepo)(nil)

// RedisKVRepo はRedisを使用したKVストア。
// すべてのキーにprefixを付与し、TTLは設定しない。
type RedisKVRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisKVRepo はRedisKVRepoを生成する。
func NewRedisKVRepo(client *redis.Client, prefix string) *RedisKVRepo {
	return &RedisKVRepo{client: client, prefix: prefix}
}

func (r *RedisKVRepo) key(k string) string {
	return r.prefix + k
}

// Get は指定キーの値を取得する。redis.Nilの場合はfound=falseを返す。
func (r *RedisKVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get kv %q: %w", key, err)
	}

	return value, true, nil
}

// Set は指定キーに値を保存する。
func (r *RedisKVRepo) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set kv %q: %w", key, err)
	}
	return nil
}

// Ping はRedisへの疎通を確認する。
func (r *RedisKVRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
