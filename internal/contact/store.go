// Package contact は連絡先コレクションの検索・作成・部分更新・削除を提供する。
package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
)

// CollectionKey はKVストア上の連絡先コレクションのキー。
const CollectionKey = "contacts"

// Store は連絡先コレクションを管理する。
// コレクション全体を1つのJSON配列として保持し、変更のたびに全体を書き戻す。
// 既知でないキーは書き戻し後も残る。
type Store struct {
	kv    repository.KVStore
	mu    sync.Mutex // 読み込み〜書き戻しを直列化する
	now   func() time.Time
	newID func() string
}

// Option はStoreの生成オプション。
type Option func(*Store)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator はID生成関数を差し替える。
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore はStoreを生成する。
func NewStore(kv repository.KVStore, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: newContactID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newContactID はハイフンを除いたUUID（32文字の英数字）を返す。
func newContactID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// List はクエリに一致する連絡先をlast、createdAtの順に並べて返す。
// クエリが空の場合は全件を返す。
func (s *Store) List(ctx context.Context, query string) ([]model.Contact, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	contacts := contactsOf(records)

	if query != "" {
		contacts = filterByName(contacts, query)
	}
	sortByLastName(contacts)

	return contacts, nil
}

// Get は指定IDの連絡先を取得する。見つからない場合はnilを返す。
func (s *Store) Get(ctx context.Context, id string) (*model.Contact, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if idx := indexOf(records, id); idx >= 0 {
		c := records[idx].Contact
		return &c, nil
	}
	return nil, nil
}

// Create は新しい連絡先を作成し、コレクションの先頭に追加する。
// createdByが空の場合はmodel.SystemActorを設定する。
func (s *Store) Create(ctx context.Context, patch model.ContactPatch, createdBy string) (*model.Contact, error) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if createdBy == "" {
		createdBy = model.SystemActor
	}
	c := model.Contact{
		ID:        s.newID(),
		CreatedAt: s.now().UnixMilli(),
		CreatedBy: createdBy,
	}
	patch.ApplyTo(&c)

	records = append([]record{{Contact: c}}, records...)
	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	return &c, nil
}

// Update は指定されたフィールドのみを上書きする。
// id、createdAt、createdByは変更されない。
// 連絡先が存在しない場合はmodel.ErrContactNotFoundを返す。
func (s *Store) Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return nil, fmt.Errorf("update contact %s: %w", id, model.ErrContactNotFound)
	}

	patch.ApplyTo(&records[idx].Contact)
	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	c := records[idx].Contact
	return &c, nil
}

// Delete は指定IDの連絡先を削除する。
// 削除した場合はtrue、存在しなかった場合はfalseを返す（エラーではない）。
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return false, nil
	}

	records = append(records[:idx], records[idx+1:]...)
	if err := s.save(ctx, records); err != nil {
		return false, err
	}

	return true, nil
}

// Count は連絡先の件数を返す。
func (s *Store) Count(ctx context.Context) (int, error) {
	records, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func indexOf(records []record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) load(ctx context.Context) ([]record, error) {
	raw, found, err := s.kv.Get(ctx, CollectionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	records := []record{}
	if !found {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	if records == nil {
		records = []record{}
	}
	return records, nil
}

func (s *Store) save(ctx context.Context, records []record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	if err := s.kv.Set(ctx, CollectionKey, raw); err != nil {
		return fmt.Errorf("failed to save contacts: %w", err)
	}
	return nil
}
