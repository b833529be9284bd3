package auth

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// TokenCodec はBearerトークンの発行と復号を行う。
// トークンは "<userId>:<発行時刻ミリ秒>" のbase64で、署名・有効期限・失効は持たない。
// ユーザーの存在確認は呼び出し側の責務。
type TokenCodec struct {
	now func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。nowがnilの場合はtime.Nowを使用する。
func NewTokenCodec(now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{now: now}
}

// Issue はユーザーIDからトークンを発行する。
func (c *TokenCodec) Issue(userID string) string {
	payload := userID + ":" + strconv.FormatInt(c.now().UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// Decode はトークンからユーザーIDを取り出す。
// base64として不正、区切りがない、ユーザーIDが空、時刻が整数でない場合はok=falseを返す。
func (c *TokenCodec) Decode(token string) (userID string, ok bool) {
	raw, err := base64.StdEncoding.Strict().DecodeString(token)
	if err != nil {
		return "", false
	}

	// ユーザーIDに':'が含まれてもよいよう、最後の区切りで分割する
	payload := string(raw)
	i := strings.LastIndexByte(payload, ':')
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.ParseInt(payload[i+1:], 10, 64); err != nil {
		return "", false
	}

	return payload[:i], true
}
