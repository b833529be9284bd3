// Package security は連絡先入力の検証とサニタイズを提供する。
package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/contactbook/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

// 入力フィールドの上限（文字数）
const (
	MaxTextLength    = 500
	MaxAddressLength = 1000
	MaxAvatarLength  = 1000
	MaxTwitterLength = 15
)

var (
	contactIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	twitterDisallowed  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	addressDisallowed  = regexp.MustCompile(`[<>{}\[\]\\]`)
	whitespaceSequence = regexp.MustCompile(`\s+`)
)

// ValidateContactID は連絡先IDが英数字のみで構成されているかを検証する。
func ValidateContactID(id string) error {
	if !contactIDPattern.MatchString(id) {
		return model.NewValidationError("Invalid contact ID", "id")
	}
	return nil
}

// DecodeContactPatch はリクエストボディをContactPatchにデコードする。
// ボディはJSONオブジェクトでなければならない。未知のキーは無視する。
func DecodeContactPatch(body []byte) (model.ContactPatch, error) {
	var patch model.ContactPatch

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return patch, model.NewValidationError("Request body must be a JSON object", "")
	}
	if err := json.Unmarshal(trimmed, &patch); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return patch, model.NewValidationError("Invalid value for "+typeErr.Field, typeErr.Field)
		}
		return patch, model.NewValidationError("Invalid JSON body", "")
	}

	return patch, nil
}

// ContactInputSanitizer は連絡先の入力値を正規化・検証する。
// 自由記述のテキストはbluemondayのStrictPolicyでHTMLを除去したプレーンテキストにする。
type ContactInputSanitizer struct {
	policy *bluemonday.Policy
}

// NewContactInputSanitizer はContactInputSanitizerを生成する。
func NewContactInputSanitizer() *ContactInputSanitizer {
	return &ContactInputSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizePatch は指定されたフィールドのみを正規化したパッチを返す。
// avatarがhttp/httpsの絶対URLでない場合はフィールドavatarの検証エラーを返す。
// 空のavatarは削除（空文字で上書き）として扱う。
func (s *ContactInputSanitizer) SanitizePatch(p model.ContactPatch) (model.ContactPatch, error) {
	out := model.ContactPatch{Favorite: p.Favorite}

	if p.First != nil {
		out.First = ptr(s.text(*p.First, MaxTextLength))
	}
	if p.Last != nil {
		out.Last = ptr(s.text(*p.Last, MaxTextLength))
	}
	if p.Notes != nil {
		out.Notes = ptr(s.text(*p.Notes, MaxTextLength))
	}
	if p.Twitter != nil {
		out.Twitter = ptr(SanitizeTwitterHandle(*p.Twitter))
	}
	if p.Address != nil {
		out.Address = ptr(s.address(*p.Address))
	}
	if p.Avatar != nil {
		avatar, err := ValidateAvatarURL(*p.Avatar)
		if err != nil {
			return model.ContactPatch{}, err
		}
		out.Avatar = ptr(avatar)
	}

	return out, nil
}

// text はHTMLを除去し、前後の空白を取り除いてmax文字に切り詰める。
func (s *ContactInputSanitizer) text(v string, max int) string {
	return truncate(strings.TrimSpace(s.stripHTML(v)), max)
}

// address は住所に不要な記号を除去し、連続する空白を1つにまとめる。
func (s *ContactInputSanitizer) address(v string) string {
	v = strings.TrimSpace(s.stripHTML(v))
	v = addressDisallowed.ReplaceAllString(v, "")
	v = whitespaceSequence.ReplaceAllString(v, " ")
	return truncate(strings.TrimSpace(v), MaxAddressLength)
}

// stripHTML はタグを除去する。StrictPolicyはエスケープ済みのテキストを返すため、
// プレーンテキストとして保存できるよう実体参照を戻す。
func (s *ContactInputSanitizer) stripHTML(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

// SanitizeTwitterHandle は先頭の@を除き、英数字とアンダースコアのみを残す。
func SanitizeTwitterHandle(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "@")
	v = twitterDisallowed.ReplaceAllString(v, "")
	return truncate(v, MaxTwitterLength)
}

// ValidateAvatarURL はavatarがhttpまたはhttpsの絶対URLかを検証する。
// 空文字は許可し、空文字を返す。
func ValidateAvatarURL(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if utf8.RuneCountInString(v) > MaxAvatarLength {
		return "", model.NewValidationError("Avatar URL is too long", "avatar")
	}

	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", model.NewValidationError("Avatar must be a valid http or https URL", "avatar")
	}

	return v, nil
}

func truncate(v string, max int) string {
	if utf8.RuneCountInString(v) <= max {
		return v
	}
	return string([]rune(v)[:max])
}

func ptr(s string) *string { return &s }
