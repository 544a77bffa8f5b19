// Package validation provides input validation helpers for the Codtrack API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (4MB — bulk imports carry
// hundreds of orders per request).
const MaxRequestSize = 4 << 20

// MaxStringLength is the maximum length for free-text string fields.
const MaxStringLength = 1000

// phoneRegex accepts an optional leading + followed by 8-15 digits, which
// covers local and E.164 forms after normalization.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// RequestSizeMiddleware limits request body size.
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// NormalizePhone strips spaces, dots, dashes, and parentheses so the same
// customer never appears under two spellings of one number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// IsValidPhone checks a normalized phone number.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// SanitizeString trims whitespace, strips control characters, and caps length.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
