// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrContactNotFound は指定IDの連絡先が存在しないことを表す。
// ストア層はHTTPの意味を持たず、このドメインエラーのみを返す。
var ErrContactNotFound = errors.New("contact not found")

// APIError は統一エラーフォーマットを表す。
// HTTPステータスへの変換はハンドラー層のみが行う。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（レスポンスのerrorフィールド）
	Category string // カテゴリ: auth, validation, contact, system
	Field    string // 入力エラーの対象フィールド（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
// fieldは空でもよい。
func NewValidationError(message, field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Field:    field,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = "Authentication required"
	}
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  message,
		Category: "auth",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// fieldはフォームに表示するヒント（email または password）。
func NewInvalidCredentialsError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Invalid email or password",
		Category: "auth",
		Field:    field,
	}
}

// NewForbiddenError はロール不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You do not have permission to perform this action",
		Category: "auth",
	}
}

// NewContactNotFoundError は連絡先未検出エラーを生成する。
func NewContactNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "Contact not found",
		Category: "contact",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
// 非adminから見えないadminユーザーもこのエラーになる。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "Method Not Allowed",
		Category: "validation",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、レスポンスには含めない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
	}
}

// NewRouteNotFoundError は存在しないエンドポイントへのリクエストのエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "Not found",
		Category: "system",
	}
}
