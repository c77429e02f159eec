package common

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// SanitizeSessionID 將 session id 轉為可安全用於檔名的字串
func SanitizeSessionID(sessionID string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(sessionID) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
		if sb.Len() >= 64 {
			break
		}
	}
	if sb.Len() == 0 {
		return "session"
	}
	return sb.String()
}
