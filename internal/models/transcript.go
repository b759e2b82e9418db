package models

import (
	"strings"
	"time"
)

// TranscriptEntry is one conversation turn captured during a voice session.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HasContent reports whether any turn carries non-blank text.
func HasContent(entries []TranscriptEntry) bool {
	for _, e := range entries {
		if strings.TrimSpace(e.Content) != "" {
			return true
		}
	}
	return false
}

// SessionState is the voice session lifecycle: idle -> call-started -> call-ended.
type SessionState string

const (
	SessionIdle        SessionState = "idle"
	SessionCallStarted SessionState = "call-started"
	SessionCallEnded   SessionState = "call-ended"
)
