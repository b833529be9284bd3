package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/contactbook/internal/contact"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
)

// Migrations は登録済みのマイグレーション一覧を返す。
func Migrations() []Migration {
	return []Migration{
		{
			Version:     2,
			Description: "Add createdBy to contacts",
			Run:         addCreatedBy,
		},
	}
}

// addCreatedBy はcreatedByを持たない連絡先にmodel.SystemActorを設定する。
// 未設定とnull、空文字を区別せず補完し、既に値を持つ連絡先は変更しない。
// 型付きの構造体を経由すると未知のフィールドが失われるため、生のJSONオブジェクトとして扱う。
func addCreatedBy(ctx context.Context, kv repository.KVStore) error {
	raw, found, err := kv.Get(ctx, contact.CollectionKey)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}
	if !found {
		return nil
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("failed to decode contacts: %w", err)
	}

	system, _ := json.Marshal(model.SystemActor)
	changed := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if hasCreatedBy(rec["createdBy"]) {
			continue
		}
		rec["createdBy"] = system
		changed++
	}
	if changed == 0 {
		return nil
	}

	out, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	if err := kv.Set(ctx, contact.CollectionKey, out); err != nil {
		return fmt.Errorf("failed to save contacts: %w", err)
	}
	return nil
}

func hasCreatedBy(v json.RawMessage) bool {
	if len(v) == 0 {
		return false
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		// 文字列以外の値はそのまま残す
		return true
	}
	return s != nil && *s != ""
}
