package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var _ KVStore = (*PostgresKVRepo)(nil)

// PostgresKVRepo はPostgreSQLのkv_storeテーブルを使用したKVストア。
// テーブルはdatabase.RunMigrationsで作成される。
type PostgresKVRepo struct {
	db *sql.DB
}

// NewPostgresKVRepo はPostgresKVRepoを生成する。
func NewPostgresKVRepo(db *sql.DB) *PostgresKVRepo {
	return &PostgresKVRepo{db: db}
}

// Get は指定キーの値を取得する。見つからない場合はfound=falseを返す。
func (r *PostgresKVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get kv %q: %w", key, err)
	}

	return value, true, nil
}

// Set は指定キーの値をUPSERTする。
func (r *PostgresKVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to set kv %q: %w", key, err)
	}

	return nil
}

// Ping はデータベース接続を確認する。
func (r *PostgresKVRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
