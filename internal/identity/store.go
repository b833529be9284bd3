// Package identity はユーザーの識別情報と認証情報を保持する。
// ユーザーは起動時のシードからのみ作られ、実行中に変更されない。
package identity

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/contactbook/internal/model"
)

// SeedUser はストア生成時に渡すユーザー定義。
// Passwordはストア内部にのみ保持され、model.Userとして外部に出ることはない。
type SeedUser struct {
	ID       string     `yaml:"id"`
	Email    string     `yaml:"email"`
	Password string     `yaml:"password"`
	Name     string     `yaml:"name"`
	Role     model.Role `yaml:"role"`
}

type record struct {
	user       model.User
	credential []byte
}

// Store はシードされたユーザーの読み取り専用ストア。
// 生成後は変更されないため、複数のgoroutineから同時に参照してよい。
type Store struct {
	records []record
	byEmail map[string]int
	byID    map[string]int
}

// NewStore はシードからStoreを生成する。
// createdAtはすべてのユーザーで同じ値（通常はプロセス起動時刻）になる。
func NewStore(seed []SeedUser, createdAt time.Time) (*Store, error) {
	s := &Store{
		records: make([]record, 0, len(seed)),
		byEmail: make(map[string]int, len(seed)),
		byID:    make(map[string]int, len(seed)),
	}

	for i, su := range seed {
		if su.ID == "" {
			return nil, fmt.Errorf("user #%d: id is required", i+1)
		}
		if su.Email == "" {
			return nil, fmt.Errorf("user %q: email is required", su.ID)
		}
		if su.Password == "" {
			return nil, fmt.Errorf("user %q: password is required", su.ID)
		}
		if !su.Role.Valid() {
			return nil, fmt.Errorf("user %q: unknown role %q", su.ID, su.Role)
		}
		if _, dup := s.byID[su.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %q", su.ID)
		}
		key := normalizeEmail(su.Email)
		if _, dup := s.byEmail[key]; dup {
			return nil, fmt.Errorf("duplicate user email %q", su.Email)
		}

		s.byID[su.ID] = len(s.records)
		s.byEmail[key] = len(s.records)
		s.records = append(s.records, record{
			user: model.User{
				ID:        su.ID,
				Email:     su.Email,
				Name:      su.Name,
				Role:      su.Role,
				CreatedAt: createdAt.UnixMilli(),
			},
			credential: []byte(su.Password),
		})
	}

	return s, nil
}

// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
// 見つからない場合はnilを返す。
func (s *Store) FindByEmail(email string) *model.User {
	i, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil
	}
	u := s.records[i].user
	return &u
}

// FindByID はIDの完全一致でユーザーを検索する。見つからない場合はnilを返す。
func (s *Store) FindByID(id string) *model.User {
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	u := s.records[i].user
	return &u
}

// VerifyCredentials はメールアドレスとパスワードが一致する場合のみユーザーを返す。
// パスワードはバイト単位で完全一致を比較し、不一致や未登録の場合は常にnilを返す。
func (s *Store) VerifyCredentials(email, password string) *model.User {
	i, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil
	}
	rec := s.records[i]
	if subtle.ConstantTimeCompare(rec.credential, []byte(password)) != 1 {
		return nil
	}
	u := rec.user
	return &u
}

// List は全ユーザーをシード順で返す。
func (s *Store) List() []model.User {
	users := make([]model.User, len(s.records))
	for i, rec := range s.records {
		users[i] = rec.user
	}
	return users
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

