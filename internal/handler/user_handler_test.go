package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/identity"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_ListUsers_HidesAdminsFromNonAdmins(t *testing.T) {
	env := newTestEnv(t)

	for _, userID := range []string{"2", "3"} {
		w := env.do(t, http.MethodGet, "/api/users", env.token(userID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		users := decodeJSON[[]model.User](t, w)
		assert.Len(t, users, 2)
		for _, u := range users {
			assert.NotEqual(t, model.RoleAdmin, u.Role)
		}
	}
}

func TestUserHandler_ListUsers_AdminSeesEveryone(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users", env.token("1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	users := decodeJSON[[]model.User](t, w)
	require.Len(t, users, 3)
	assert.Equal(t, "1", users[0].ID)
}

func TestUserHandler_ListUsers_ManyAdminsNeverLeak(t *testing.T) {
	seed := identity.DefaultSeed()
	for i := 0; i < 10; i++ {
		seed = append(seed, identity.SeedUser{
			ID:       fmt.Sprintf("a%d", i),
			Email:    fmt.Sprintf("admin%d@example.com", i),
			Password: "x",
			Role:     model.RoleAdmin,
		})
	}
	users, err := identity.NewStore(seed, time.Now())
	require.NoError(t, err)
	h := NewUserHandler(users)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/users", nil), users.FindByID("3"))
	w := httptest.NewRecorder()
	h.ListUsers(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	for _, u := range decodeJSON[[]model.User](t, w) {
		assert.NotEqual(t, model.RoleAdmin, u.Role)
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		viewer string
		target string
		want   int
	}{
		{"admin views admin", "1", "1", http.StatusOK},
		{"admin views guest", "1", "3", http.StatusOK},
		{"user views guest", "2", "3", http.StatusOK},
		{"user views admin is hidden", "2", "1", http.StatusNotFound},
		{"guest views admin is hidden", "3", "1", http.StatusNotFound},
		{"unknown id", "1", "404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/users/"+tt.target, env.token(tt.viewer), nil)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, tt.target, decodeJSON[model.User](t, w).ID)
			}
		})
	}
}

func TestUserHandler_ResponsesNeverIncludePassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users", env.token("1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotContains(t, w.Body.String(), "admin123")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUserHandler_NoViewer_Returns401(t *testing.T) {
	env := newTestEnv(t)
	h := NewUserHandler(env.users)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "3")
	req := httptest.NewRequest(http.MethodGet, "/api/users/3", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	h.GetUser(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
