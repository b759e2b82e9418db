package voice

import (
	"context"
	"time"
)

// CallRequest describes the assistant a voice call should be started with.
type CallRequest struct {
	InterviewID  string
	SystemPrompt string
	FirstMessage string
	MaxDuration  time.Duration
}

type Call struct {
	CallID     string `json:"call_id"`
	WebCallURL string `json:"web_call_url,omitempty"`
}

// Provider starts and stops hosted voice calls. Transcription and speech synthesis
// happen on the provider's side; transcript events come back through the webhook.
type Provider interface {
	StartCall(ctx context.Context, req CallRequest) (*Call, error)
	EndCall(ctx context.Context, callID string) error
	Name() string
}
