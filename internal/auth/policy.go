package auth

import (
	"errors"

	"github.com/hitoshi/contactbook/internal/model"
)

// ErrForbidden はロールが操作を許可されていないことを表す。
var ErrForbidden = errors.New("forbidden")

// Operation は認可対象の操作。
type Operation string

const (
	OpListContacts  Operation = "list_contacts"
	OpGetContact    Operation = "get_contact"
	OpCreateContact Operation = "create_contact"
	OpUpdateContact Operation = "update_contact"
	OpDeleteContact Operation = "delete_contact"
	OpListUsers     Operation = "list_users"
	OpGetUser       Operation = "get_user"
	OpLogout        Operation = "logout"
	OpCurrentUser   Operation = "current_user"
)

var anyRole = []model.Role{model.RoleAdmin, model.RoleUser, model.RoleGuest}

// Policy は操作ごとに許可されるロールの一覧。
// ログインは認証不要のためここには含めない。
var Policy = map[Operation][]model.Role{
	OpListContacts:  anyRole,
	OpGetContact:    anyRole,
	OpCreateContact: {model.RoleAdmin},
	OpUpdateContact: {model.RoleAdmin},
	OpDeleteContact: {model.RoleAdmin},
	OpListUsers:     anyRole,
	OpGetUser:       anyRole,
	OpLogout:        anyRole,
	OpCurrentUser:   anyRole,
}

// Authorize はロールが操作を許可されているかを判定する。
// Policyに存在しない操作は拒否する。
func Authorize(role model.Role, op Operation) error {
	for _, r := range Policy[op] {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}

// CanView は閲覧者が対象ユーザーを参照できるかを返す。
// adminユーザーはadminからのみ見える。
func CanView(viewer, target *model.User) bool {
	if target.Role != model.RoleAdmin {
		return true
	}
	return viewer.IsAdmin()
}

// VisibleUsers はviewerが参照可能なユーザーのみを返す。
func VisibleUsers(viewer *model.User, users []model.User) []model.User {
	visible := make([]model.User, 0, len(users))
	for i := range users {
		if CanView(viewer, &users[i]) {
			visible = append(visible, users[i])
		}
	}
	return visible
}
