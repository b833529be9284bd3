package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_CreateContact_RolePolicy(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{"first": "Ada", "last": "Lovelace"}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"guest", env.token("3"), http.StatusForbidden},
		{"user", env.token("2"), http.StatusForbidden},
		{"admin", env.token("1"), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/contacts", tt.token, body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_MutationsForbiddenForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedContact(t, "Ada", "Lovelace")

	for _, userID := range []string{"2", "3"} {
		w := env.do(t, http.MethodPut, "/api/contacts/"+c.ID, env.token(userID), map[string]bool{"favorite": true})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do(t, http.MethodDelete, "/api/contacts/"+c.ID, env.token(userID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	got, err := env.contacts.Get(t.Context(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Favorite)
}

func TestRouter_ReadOperationsAllowedForAllRoles(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedContact(t, "Ada", "Lovelace")

	for _, userID := range []string{"1", "2", "3"} {
		w := env.do(t, http.MethodGet, "/api/contacts", env.token(userID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, "/api/contacts/"+c.ID, env.token(userID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, "/api/auth/me", env.token(userID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRouter_TokenForUnknownUser_Returns401(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/contacts", env.token("999"), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeJSON[middleware.ErrorResponseBody](t, w)
	assert.Equal(t, model.ErrCodeUnauthorized, body.Code)
}

func TestRouter_MalformedToken_Returns401(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/contacts", "%%%not-base64", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_LoginThenAccessWithIssuedToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeJSON[loginResponse](t, w)
	require.NotEmpty(t, login.Token)

	w = env.do(t, http.MethodPost, "/api/contacts", login.Token, map[string]string{"first": "Grace"})
	assert.Equal(t, http.StatusCreated, w.Code)
	created := decodeJSON[model.Contact](t, w)
	assert.Equal(t, "1", created.CreatedBy)
}

func TestRouter_WrongMethod_Returns405JSON(t *testing.T) {
	env := newTestEnv(t)

	// ログインは認証不要のため、トークンなしでも405になる
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/login"},
		{http.MethodPut, "/api/auth/login"},
		{http.MethodDelete, "/api/auth/login"},
		{http.MethodGet, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/me"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, "", nil)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, w.Body.String())
			body := decodeJSON[middleware.ErrorResponseBody](t, w)
			assert.Equal(t, model.ErrCodeMethodNotAllowed, body.Code)
		})
	}
}

func TestRouter_LatencyAppliesOnlyAfterAuth(t *testing.T) {
	env := newTestEnvWith(t, func(d *RouterDeps) { d.LatencyMax = time.Hour })

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts?q=x", nil))
		done <- w.Code
	}()

	select {
	case code := <-done:
		assert.Equal(t, http.StatusUnauthorized, code)
	case <-time.After(2 * time.Second):
		t.Fatal("unauthenticated request was delayed")
	}
}

func TestRouter_WrongMethodOnProtectedCollection_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodDelete, "/api/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodDelete, "/api/contacts", env.token("1"), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_WrongMethodOnContact_Returns405JSON(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedContact(t, "Ada", "Lovelace")

	w := env.do(t, http.MethodPatch, "/api/contacts/"+c.ID, env.token("1"), map[string]bool{"favorite": true})

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeJSON[middleware.ErrorResponseBody](t, w)
	assert.Equal(t, model.ErrCodeMethodNotAllowed, body.Code)
}

func TestRouter_UnknownRoute_Returns404JSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/unknown", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSON[middleware.ErrorResponseBody](t, w)
	assert.Equal(t, model.ErrCodeNotFound, body.Code)
}

func TestRouter_Preflight_Returns204WithCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/api/contacts", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Logout(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/logout", env.token("3"), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
