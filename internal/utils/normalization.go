package utils

import (
	"regexp"
	"strings"
)

var openingFence = regexp.MustCompile("^```[A-Za-z0-9_-]*")

func NormalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StripFences removes a leading ```lang fence and a trailing ``` fence.
// Text without fences is only trimmed, so fenced and unfenced output clean to the same string.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = openingFence.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// EmailLocalPart is used as a display name fallback.
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
