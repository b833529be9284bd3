// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/contactbook/internal/auth"
	"github.com/hitoshi/contactbook/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// Authenticator はBearerトークンからユーザーを解決するインターフェース。
type Authenticator interface {
	Authenticate(token string) (*model.User, error)
}

// AuthFailureRecorder は認証・認可の失敗を記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

type nopAuthRecorder struct{}

func (nopAuthRecorder) RecordAuthFailure(string) {}

func orNopRecorder(r AuthFailureRecorder) AuthFailureRecorder {
	if r == nil {
		return nopAuthRecorder{}
	}
	return r
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// トークンがない、復号できない、ユーザーが存在しない場合は401を返す。
func NewAuthMiddleware(authenticator Authenticator, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	recorder = orNopRecorder(recorder)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				recorder.RecordAuthFailure("missing_token")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
				return
			}

			user, err := authenticator.Authenticate(token)
			if err != nil {
				recorder.RecordAuthFailure("invalid_token")
				slog.Debug("authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			setLoggedUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireOperation は認証済みユーザーのロールが操作を許可されているかを検証するミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。許可されていない場合は403を返す。
func RequireOperation(op auth.Operation, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	recorder = orNopRecorder(recorder)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
				return
			}

			if err := auth.Authorize(user.Role, op); err != nil {
				recorder.RecordAuthFailure("forbidden")
				slog.Warn("operation forbidden",
					slog.String("user_id", user.ID),
					slog.String("role", string(user.Role)),
					slog.String("operation", string(op)),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken はAuthorizationヘッダーからトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーのIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, err := UserFromContext(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
