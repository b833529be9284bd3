// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
)

// KVStore は連絡先コレクションとスキーマバージョンを保持するキーバリューストア。
// 値はJSONエンコード済みのバイト列として扱い、解釈は呼び出し側が行う。
type KVStore interface {
	// Get は指定キーの値を取得する。キーが存在しない場合はfoundがfalseになる。
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set は指定キーに値を保存する。既存の値は上書きされる。
	Set(ctx context.Context, key string, value []byte) error

	// Ping はバックエンドへの疎通を確認する。
	Ping(ctx context.Context) error
}
