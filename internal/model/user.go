// Package model はドメインモデルを定義する。
package model

import "fmt"

// Role はユーザーのロールを表す。階層はなく、操作ごとの許可リストでのみ評価する。
type Role string

const (
	// RoleAdmin は連絡先の作成・更新・削除が可能なロール。
	RoleAdmin Role = "admin"
	// RoleUser は閲覧のみ可能な一般ユーザー。
	RoleUser Role = "user"
	// RoleGuest は閲覧のみ可能なゲスト。
	RoleGuest Role = "guest"
)

// ValidRoles は有効なロールの一覧。
var ValidRoles = []Role{RoleAdmin, RoleUser, RoleGuest}

// Valid はロールが列挙値のいずれかであるかを返す。
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole は文字列をRoleに変換する。
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// User はサービス利用ユーザーを表す。
// 認証情報はIdentity Storeの内部にのみ保持し、この型には含めない。
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	CreatedAt int64  `json:"createdAt"` // エポックミリ秒
}

// IsAdmin はadminロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
