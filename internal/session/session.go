package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/models"
)

var ErrInvalidTransition = errors.New("invalid session state transition")

var transitions = map[models.SessionState]models.SessionState{
	models.SessionIdle:        models.SessionCallStarted,
	models.SessionCallStarted: models.SessionCallEnded,
}

// Session is the voice call state of one interview. Its mutex serializes start,
// append and end so a call cannot be ended twice.
type Session struct {
	mu sync.Mutex

	InterviewID   string
	OwnerEmail    string
	InterviewTime int

	callID          string
	state           models.SessionState
	startedAt       time.Time
	systemPrompt    string
	webCallURL      string
	transcriptCount int
	// set when the call ended but feedback could not be stored; End retries it
	feedbackPending bool
}

func newSession(interview *models.InterviewDetails) *Session {
	return &Session{
		InterviewID:   interview.InterviewID,
		OwnerEmail:    interview.UserEmail,
		InterviewTime: interview.InterviewTime,
		state:         models.SessionIdle,
	}
}

// restoreSession rebuilds a session persisted by another process.
func restoreSession(rec Record, transcriptCount int) *Session {
	return &Session{
		InterviewID:     rec.InterviewID,
		OwnerEmail:      rec.OwnerEmail,
		InterviewTime:   rec.InterviewTime,
		callID:          rec.CallID,
		webCallURL:      rec.WebCallURL,
		state:           rec.State,
		startedAt:       rec.StartedAt,
		feedbackPending: rec.FeedbackPending,
		transcriptCount: transcriptCount,
	}
}

// caller holds s.mu
func (s *Session) record() Record {
	return Record{
		InterviewID:     s.InterviewID,
		OwnerEmail:      s.OwnerEmail,
		InterviewTime:   s.InterviewTime,
		CallID:          s.callID,
		WebCallURL:      s.webCallURL,
		State:           s.state,
		StartedAt:       s.startedAt,
		FeedbackPending: s.feedbackPending,
	}
}

// caller holds s.mu
func (s *Session) transition(to models.SessionState) error {
	if transitions[s.state] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// due reports whether the reaper should end the session: its interview time plus grace
// has run out, or its feedback is still waiting to be stored.
func (s *Session) due(now time.Time, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.SessionCallEnded {
		return s.feedbackPending
	}
	if s.state != models.SessionCallStarted {
		return false
	}
	limit := time.Duration(s.InterviewTime)*time.Minute + grace
	return now.Sub(s.startedAt) > limit
}

// caller holds s.mu
func (s *Session) snapshot(includePrompt bool) *models.SessionResponse {
	resp := &models.SessionResponse{
		InterviewID:     s.InterviewID,
		CallID:          s.callID,
		State:           s.state,
		TranscriptCount: s.transcriptCount,
		WebCallURL:      s.webCallURL,
	}
	if includePrompt {
		resp.SystemPrompt = s.systemPrompt
	}
	return resp
}
