package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
)

// UserDirectory はユーザーハンドラーが必要とする参照インターフェース。
type UserDirectory interface {
	List() []model.User
	FindByID(id string) *model.User
}

// UserHandler はユーザー参照のHTTPハンドラー。
// adminユーザーはadmin以外の閲覧者からは存在しないものとして扱う。
type UserHandler struct {
	users UserDirectory
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{
		users: users,
	}
}

// ListUsers は閲覧者が参照可能なユーザー一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	viewer, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
		return
	}

	writeJSON(w, http.StatusOK, auth.VisibleUsers(viewer, h.users.List()))
}

// GetUser はユーザーの詳細を返す。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewer, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
		return
	}

	target := h.users.FindByID(chi.URLParam(r, "id"))
	if target == nil || !auth.CanView(viewer, target) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, target)
}
