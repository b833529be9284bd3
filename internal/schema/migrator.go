// Package schema は永続化された連絡先コレクションのデータマイグレーションを管理する。
//
// スキーマバージョンはKVストアのschemaVersionキーに整数として保存される。
// 起動時にRunを呼び出し、保存済みバージョンより新しいマイグレーションを昇順に適用する。
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/hitoshi/contactbook/internal/repository"
)

// VersionKey はKVストア上のスキーマバージョンのキー。
const VersionKey = "schemaVersion"

const (
	// InitialVersion はバージョン未保存時に仮定するバージョン。
	InitialVersion = 1
	// CurrentVersion は現在のコードが前提とするバージョン。
	CurrentVersion = 2
)

// Migration は1バージョン分のデータ変換。
// Runはコレクションを変換して書き戻すところまでを行う。
type Migration struct {
	Version     int
	Description string
	Run         func(ctx context.Context, kv repository.KVStore) error
}

// Observer はマイグレーション適用時に呼び出される。
type Observer func(m Migration)

// Migrator はマイグレーションを順に適用する。
type Migrator struct {
	kv         repository.KVStore
	migrations []Migration
	target     int
	observer   Observer
}

// NewMigrator は登録済みマイグレーションを使用するMigratorを生成する。
func NewMigrator(kv repository.KVStore, observer Observer) *Migrator {
	return newMigrator(kv, Migrations(), CurrentVersion, observer)
}

func newMigrator(kv repository.KVStore, migrations []Migration, target int, observer Observer) *Migrator {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		kv:         kv,
		migrations: sorted,
		target:     target,
		observer:   observer,
	}
}

// Run は未適用のマイグレーションを適用し、最終的なバージョンを返す。
// 各ステップの変換が書き込まれた後にのみバージョンを進める。
// 途中で失敗した場合は後続のステップを実行せずにエラーを返し、
// 保存済みバージョンは最後に成功したステップのままになる。
func (m *Migrator) Run(ctx context.Context) (int, error) {
	version, err := m.StoredVersion(ctx)
	if err != nil {
		return 0, err
	}

	for _, mig := range m.migrations {
		if mig.Version <= version {
			continue
		}

		slog.Info("applying data migration",
			slog.Int("version", mig.Version),
			slog.String("description", mig.Description),
		)

		if err := mig.Run(ctx, m.kv); err != nil {
			return version, fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Description, err)
		}
		if err := m.setVersion(ctx, mig.Version); err != nil {
			return version, err
		}
		version = mig.Version

		if m.observer != nil {
			m.observer(mig)
		}
	}

	if version < m.target {
		version = m.target
	}
	if err := m.setVersion(ctx, version); err != nil {
		return 0, err
	}

	return version, nil
}

// StoredVersion は保存済みのバージョンを返す。未保存の場合はInitialVersionを返す。
func (m *Migrator) StoredVersion(ctx context.Context) (int, error) {
	raw, found, err := m.kv.Get(ctx, VersionKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !found {
		return InitialVersion, nil
	}

	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

func (m *Migrator) setVersion(ctx context.Context, v int) error {
	if err := m.kv.Set(ctx, VersionKey, []byte(strconv.Itoa(v))); err != nil {
		return fmt.Errorf("failed to save schema version %d: %w", v, err)
	}
	return nil
}
