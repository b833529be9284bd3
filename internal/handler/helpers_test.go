package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/contact"
	"github.com/hitoshi/contactbook/internal/identity"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
	"github.com/hitoshi/contactbook/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testEnv は実コンポーネントで組み立てたルーターとその依存。
type testEnv struct {
	router   http.Handler
	contacts *contact.Store
	users    *identity.Store
	codec    *auth.TokenCodec
	kv       *repository.MemoryKVRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith はRouterDepsを調整してからルーターを構築する。
func newTestEnvWith(t *testing.T, configure func(*RouterDeps)) *testEnv {
	t.Helper()

	users, err := identity.NewStore(identity.DefaultSeed(), time.UnixMilli(1_700_000_000_000))
	require.NoError(t, err)

	kv := repository.NewMemoryKVRepo()
	contacts := contact.NewStore(kv)
	codec := auth.NewTokenCodec(nil)
	authService := auth.NewService(users, codec)

	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(6000, 6000), nil)
	t.Cleanup(limiter.Stop)

	deps := &RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       limiter,
		Gatherer:          prometheus.NewRegistry(),
		Authenticator:     authService,
		AuthService:       authService,
		Contacts:          contacts,
		Sanitizer:         security.NewContactInputSanitizer(),
		Users:             users,
		Health:            kv,
	}
	if configure != nil {
		configure(deps)
	}
	router := NewRouter(deps)

	return &testEnv{
		router:   router,
		contacts: contacts,
		users:    users,
		codec:    codec,
		kv:       kv,
	}
}

// token はシードユーザーのBearerトークンを返す。
func (e *testEnv) token(userID string) string {
	return e.codec.Issue(userID)
}

// do はリクエストを送信してレスポンスを返す。tokenが空の場合はAuthorizationヘッダーを付けない。
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// seedContact はストアに直接連絡先を作成する。
func (e *testEnv) seedContact(t *testing.T, first, last string) *model.Contact {
	t.Helper()
	c, err := e.contacts.Create(context.Background(), model.ContactPatch{First: &first, Last: &last}, "1")
	require.NoError(t, err)
	return c
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

// failingStore は常にエラーを返すContactStore。
type failingStore struct{}

var errStoreDown = errors.New("kv unavailable")

func (failingStore) List(context.Context, string) ([]model.Contact, error) {
	return nil, errStoreDown
}

func (failingStore) Get(context.Context, string) (*model.Contact, error) {
	return nil, errStoreDown
}

func (failingStore) Create(context.Context, model.ContactPatch, string) (*model.Contact, error) {
	return nil, errStoreDown
}

func (failingStore) Update(context.Context, string, model.ContactPatch) (*model.Contact, error) {
	return nil, errStoreDown
}

func (failingStore) Delete(context.Context, string) (bool, error) {
	return false, errStoreDown
}

// recordingMutations は記録された変更操作を保持する。
type recordingMutations struct {
	ops []string
}

func (r *recordingMutations) RecordContactMutation(op string) {
	r.ops = append(r.ops, op)
}

// withUser はテスト用にリクエストコンテキストにユーザーを注入するヘルパー。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}
