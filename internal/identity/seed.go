package identity

import (
	"fmt"
	"os"

	"github.com/hitoshi/contactbook/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultSeed は開発用の初期ユーザー。
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{ID: "1", Email: "admin@example.com", Password: "admin123", Name: "Admin User", Role: model.RoleAdmin},
		{ID: "2", Email: "user@example.com", Password: "password123", Name: "Demo User", Role: model.RoleUser},
		{ID: "3", Email: "guest@example.com", Password: "guest123", Name: "Guest User", Role: model.RoleGuest},
	}
}

// seedFile はUSERS_FILEのYAML構造。
//
//	users:
//	  - id: "10"
//	    email: ops@example.com
//	    password: secret
//	    name: Ops
//	    role: admin
type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile はYAMLファイルからシードユーザーを読み込む。
// 検証はNewStoreで行う。
func LoadSeedFile(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed はYAMLバイト列からシードユーザーを読み込む。
func ParseSeed(data []byte) ([]SeedUser, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("users file defines no users")
	}
	return f.Users, nil
}
