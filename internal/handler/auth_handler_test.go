package handler

import (
	"net/http"
	"testing"

	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "USER@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[loginResponse](t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "2", resp.User.ID)

	userID, ok := env.codec.Decode(resp.Token)
	require.True(t, ok)
	assert.Equal(t, "2", userID)
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		body      interface{}
		wantCode  int
		wantField string
	}{
		{"missing email", map[string]string{"password": "x"}, http.StatusBadRequest, "email"},
		{"missing password", map[string]string{"email": "user@example.com"}, http.StatusBadRequest, "password"},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "x"}, http.StatusUnauthorized, "email"},
		{"wrong password", map[string]string{"email": "user@example.com", "password": "nope"}, http.StatusUnauthorized, "password"},
		{"invalid json", `{"email":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/login", "", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			body := decodeJSON[middleware.ErrorResponseBody](t, w)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestAuthHandler_Me_ReturnsCurrentUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/me", env.token("3"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[userResponse](t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.Equal(t, model.RoleGuest, resp.User.Role)
}

func TestAuthHandler_Me_NoToken_Returns401(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
