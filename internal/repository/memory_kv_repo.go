package repository

import (
	"context"
	"sync"
)

var _ KVStore = (*MemoryKVRepo)(nil)

// MemoryKVRepo はプロセス内のmapを使用したKVストア。
// プロセス終了とともにデータは失われる。
type MemoryKVRepo struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKVRepo はMemoryKVRepoを生成する。
func NewMemoryKVRepo() *MemoryKVRepo {
	return &MemoryKVRepo{data: make(map[string][]byte)}
}

// Get は指定キーの値のコピーを返す。
func (r *MemoryKVRepo) Get(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set は値のコピーを保存する。
func (r *MemoryKVRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[key] = append([]byte(nil), value...)
	return nil
}

// Ping は常に成功する。
func (r *MemoryKVRepo) Ping(_ context.Context) error {
	return nil
}
