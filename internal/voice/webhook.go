package voice

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const WebhookSecretHeader = "X-Vapi-Secret"

type EventKind string

const (
	EventTranscript EventKind = "transcript"
	EventStarted    EventKind = "started"
	EventEnded      EventKind = "ended"
	EventIgnored    EventKind = "ignored"
)

// Event is a provider server message reduced to what the session controller needs.
type Event struct {
	Kind      EventKind
	CallID    string
	Role      string
	Content   string
	Reason    string
	Timestamp time.Time
}

var ErrMalformedEvent = errors.New("malformed voice webhook payload")

type serverMessage struct {
	Message struct {
		Type           string  `json:"type"`
		Role           string  `json:"role"`
		TranscriptType string  `json:"transcriptType"`
		Transcript     string  `json:"transcript"`
		Status         string  `json:"status"`
		EndedReason    string  `json:"endedReason"`
		Timestamp      float64 `json:"timestamp"`
		Call           struct {
			ID string `json:"id"`
		} `json:"call"`
	} `json:"message"`
}

// ParseEvent decodes a webhook body. Partial transcripts and unknown message types
// come back as EventIgnored.
func ParseEvent(body []byte) (*Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, ErrMalformedEvent
	}
	m := msg.Message
	if m.Type == "" || m.Call.ID == "" {
		return nil, ErrMalformedEvent
	}

	event := &Event{Kind: EventIgnored, CallID: m.Call.ID, Timestamp: time.Now().UTC()}
	if m.Timestamp > 0 {
		event.Timestamp = time.UnixMilli(int64(m.Timestamp)).UTC()
	}

	switch m.Type {
	case "transcript":
		if m.TranscriptType != "" && m.TranscriptType != "final" {
			return event, nil
		}
		if strings.TrimSpace(m.Transcript) == "" {
			return event, nil
		}
		event.Kind = EventTranscript
		event.Role = normalizeRole(m.Role)
		event.Content = m.Transcript
	case "status-update":
		switch m.Status {
		case "in-progress":
			event.Kind = EventStarted
		case "ended":
			event.Kind = EventEnded
			event.Reason = firstNonEmpty(m.EndedReason, "status-update")
		}
	case "end-of-call-report":
		event.Kind = EventEnded
		event.Reason = firstNonEmpty(m.EndedReason, "end-of-call-report")
	}
	return event, nil
}

// VerifySecret compares the shared secret in constant time. An unset expected
// secret rejects every request.
func VerifySecret(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func normalizeRole(role string) string {
	switch strings.ToLower(role) {
	case "assistant", "bot":
		return "assistant"
	default:
		return "user"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
