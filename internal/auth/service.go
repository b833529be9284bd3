// Package auth はログイン、Bearerトークン、ロールによる認可を提供する。
package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/hitoshi/contactbook/internal/model"
)

// ErrUnauthorized はトークンが無効、またはユーザーが解決できないことを表す。
var ErrUnauthorized = errors.New("unauthorized")

// UserDirectory は認証に必要なユーザー参照のインターフェース。
type UserDirectory interface {
	FindByID(id string) *model.User
	FindByEmail(email string) *model.User
	VerifyCredentials(email, password string) *model.User
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token string
	User  *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users UserDirectory
	codec *TokenCodec
}

// NewService はServiceを生成する。
func NewService(users UserDirectory, codec *TokenCodec) *Service {
	return &Service{users: users, codec: codec}
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// 入力不足は400、認証失敗は401相当の*model.APIErrorを返し、Fieldに対象の入力欄を設定する。
func (s *Service) Login(email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("Email is required", "email")
	}
	if password == "" {
		return nil, model.NewValidationError("Password is required", "password")
	}

	if s.users.FindByEmail(email) == nil {
		slog.Info("login failed", slog.String("reason", "unknown email"))
		return nil, model.NewInvalidCredentialsError("email")
	}

	user := s.users.VerifyCredentials(email, password)
	if user == nil {
		slog.Info("login failed", slog.String("reason", "password mismatch"))
		return nil, model.NewInvalidCredentialsError("password")
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{
		Token: s.codec.Issue(user.ID),
		User:  user,
	}, nil
}

// Authenticate はトークンからユーザーを解決する。
// 復号失敗、ユーザー不在のいずれもErrUnauthorizedを返す。
func (s *Service) Authenticate(token string) (*model.User, error) {
	userID, ok := s.codec.Decode(token)
	if !ok {
		return nil, ErrUnauthorized
	}

	user := s.users.FindByID(userID)
	if user == nil {
		return nil, ErrUnauthorized
	}

	return user, nil
}
