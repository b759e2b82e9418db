package session

import (
	"context"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/models"
)

// TranscriptStore holds the ordered transcript log of each session together with the
// session record, so another process can pick a call up after a restart.
type TranscriptStore interface {
	Append(ctx context.Context, interviewID string, entry models.TranscriptEntry) error
	List(ctx context.Context, interviewID string) ([]models.TranscriptEntry, error)
	Delete(ctx context.Context, interviewID string) error

	SaveSession(ctx context.Context, rec Record) error
	// LoadSession returns nil, nil when no record exists.
	LoadSession(ctx context.Context, interviewID string) (*Record, error)
	// InterviewForCall returns "" when the call id is unknown.
	InterviewForCall(ctx context.Context, callID string) (string, error)
	DeleteSession(ctx context.Context, rec Record) error
}

// Record is the persisted part of a Session.
type Record struct {
	InterviewID     string              `json:"interview_id"`
	OwnerEmail      string              `json:"owner_email"`
	InterviewTime   int                 `json:"interview_time"`
	CallID          string              `json:"call_id"`
	WebCallURL      string              `json:"web_call_url,omitempty"`
	State           models.SessionState `json:"state"`
	StartedAt       time.Time           `json:"started_at"`
	FeedbackPending bool                `json:"feedback_pending,omitempty"`
}
