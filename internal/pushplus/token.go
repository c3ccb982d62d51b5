package pushplus

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken     = errors.New("PUSHPLUS_TOKEN 未设置")
	ErrPlaceholderToken = errors.New("PUSHPLUS_TOKEN 仍是占位符")
)

var placeholders = []string{
	"your_token",
	"your-token",
	"yourtoken",
	"your_pushplus_token",
	"<token>",
	"token",
	"xxx",
	"changeme",
	"todo",
	"none",
	"null",
}

// ValidateToken 检查推送 token，空值或占位符都视为配置错误
func ValidateToken(token string) error {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return ErrMissingToken
	}
	for _, p := range placeholders {
		if t == p {
			return ErrPlaceholderToken
		}
	}
	// 形如 xxxxxx 的占位符
	if strings.Trim(t, "x*") == "" {
		return ErrPlaceholderToken
	}
	return nil
}
