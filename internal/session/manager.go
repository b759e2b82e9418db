package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/prompts"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"github.com/vansh1925/NexPrep-v2/internal/voice"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotActive       = errors.New("session is not in a call")
	ErrForbidden       = repositories.ErrNotOwner
)

type InterviewLookup interface {
	GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewDetails, error)
}

type FeedbackRunner interface {
	Generate(ctx context.Context, interviewID string, transcript []models.TranscriptEntry) (*feedback.Result, error)
	Stored(ctx context.Context, interviewID string) (bool, error)
}

// Event is pushed to stream subscribers of a session.
type Event struct {
	Type     string                  `json:"type"`
	Entry    *models.TranscriptEntry `json:"entry,omitempty"`
	State    models.SessionState     `json:"state,omitempty"`
	Feedback *models.Review          `json:"feedback,omitempty"`
}

const (
	EventTypeTranscript = "transcript"
	EventTypeEnded      = "ended"
)

// Manager owns the live sessions of this process, keyed by interview id and call id.
type Manager struct {
	interviews    InterviewLookup
	voice         voice.Provider
	transcripts   TranscriptStore
	feedback      FeedbackRunner
	promptManager prompts.PromptProvider
	logger        *zap.Logger

	mu          sync.RWMutex
	sessions    map[string]*Session
	callIndex   map[string]string
	subscribers map[string]map[chan Event]struct{}

	now func() time.Time
}

func NewManager(interviews InterviewLookup, voiceProvider voice.Provider, transcripts TranscriptStore, feedbackRunner FeedbackRunner, promptManager prompts.PromptProvider, logger *zap.Logger) *Manager {
	return &Manager{
		interviews:    interviews,
		voice:         voiceProvider,
		transcripts:   transcripts,
		feedback:      feedbackRunner,
		promptManager: promptManager,
		logger:        logger,
		sessions:      make(map[string]*Session),
		callIndex:     make(map[string]string),
		subscribers:   make(map[string]map[chan Event]struct{}),
		now:           time.Now,
	}
}

// Start begins the voice call for an interview. Starting a session that is already in a
// call returns that call. An interview that already has feedback cannot be called again.
func (m *Manager) Start(ctx context.Context, interviewID, email, candidateName string) (*models.SessionResponse, error) {
	interview, err := m.interviews.GetByInterviewID(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if interview.UserEmail != email {
		return nil, ErrForbidden
	}

	s, err := m.resolve(ctx, interviewID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		stored, err := m.feedback.Stored(ctx, interviewID)
		if err != nil {
			return nil, fmt.Errorf("check feedback: %w", err)
		}
		if stored {
			return nil, fmt.Errorf("%w: interview already has feedback", ErrInvalidTransition)
		}
		m.mu.Lock()
		existing, ok := m.sessions[interviewID]
		if !ok {
			existing = newSession(interview)
			m.sessions[interviewID] = existing
		}
		m.mu.Unlock()
		s = existing
	case err != nil:
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.SessionCallStarted:
		return s.snapshot(true), nil
	case models.SessionCallEnded:
		return nil, fmt.Errorf("%w: session already ended", ErrInvalidTransition)
	}

	data := prompts.InterviewerPromptData{
		CandidateName:   candidateName,
		JobPosition:     interview.JobPosition,
		ExperienceLevel: models.ExperienceLevelLabel(interview.ExperienceLevel),
		DifficultyLevel: interview.DifficultyLevel,
		InterviewTime:   interview.InterviewTime,
		Questions:       interview.Questions(),
	}
	systemPrompt, err := m.promptManager.BuildPrompt(prompts.ModeInterviewer, prompts.VariantDefault, data)
	if err != nil {
		m.discard(interviewID, s)
		return nil, fmt.Errorf("build interviewer prompt: %w", err)
	}
	firstMessage, err := m.promptManager.BuildPrompt(prompts.ModeInterviewer, prompts.VariantFirstMessage, data)
	if err != nil {
		m.discard(interviewID, s)
		return nil, fmt.Errorf("build first message: %w", err)
	}

	call, err := m.voice.StartCall(ctx, voice.CallRequest{
		InterviewID:  interviewID,
		SystemPrompt: systemPrompt,
		FirstMessage: firstMessage,
		MaxDuration:  time.Duration(interview.InterviewTime) * time.Minute,
	})
	if err != nil {
		m.discard(interviewID, s)
		return nil, fmt.Errorf("start voice call: %w", err)
	}

	if err := s.transition(models.SessionCallStarted); err != nil {
		return nil, err
	}
	s.callID = call.CallID
	s.webCallURL = call.WebCallURL
	s.systemPrompt = systemPrompt
	s.startedAt = m.now()

	m.mu.Lock()
	m.callIndex[call.CallID] = interviewID
	m.mu.Unlock()
	metrics.VoiceSessionsActive.Inc()

	// the call is live either way; without the record only this process can end it
	if err := m.transcripts.SaveSession(ctx, s.record()); err != nil {
		m.logger.Warn("Failed to persist session", zap.String("interview_id", interviewID), zap.Error(err))
		utils.ReportError(err, map[string]string{"component": "transcript_store", "interview_id": interviewID})
	}

	m.logger.Info("Voice session started",
		zap.String("interview_id", interviewID),
		zap.String("call_id", call.CallID),
		zap.String("voice_provider", m.voice.Name()))

	return s.snapshot(true), nil
}

// discard drops a session that never reached call-started
func (m *Manager) discard(interviewID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[interviewID] == s {
		delete(m.sessions, interviewID)
	}
}

func (m *Manager) lookup(interviewID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[interviewID]
	return s, ok
}

// resolve returns the tracked session, restoring it from the store when another
// process started it.
func (m *Manager) resolve(ctx context.Context, interviewID string) (*Session, error) {
	if s, ok := m.lookup(interviewID); ok {
		return s, nil
	}

	rec, err := m.transcripts.LoadSession(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}
	entries, err := m.transcripts.List(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	restored := restoreSession(*rec, len(entries))

	m.mu.Lock()
	if s, ok := m.sessions[interviewID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.sessions[interviewID] = restored
	if rec.CallID != "" {
		m.callIndex[rec.CallID] = interviewID
	}
	m.mu.Unlock()

	if rec.State == models.SessionCallStarted {
		metrics.VoiceSessionsActive.Inc()
	}
	m.logger.Info("Voice session restored",
		zap.String("interview_id", interviewID),
		zap.String("call_id", rec.CallID),
		zap.String("state", string(rec.State)),
		zap.Bool("feedback_pending", rec.FeedbackPending))
	return restored, nil
}

// InterviewIDForCall resolves a provider call id to its interview.
func (m *Manager) InterviewIDForCall(ctx context.Context, callID string) (string, error) {
	m.mu.RLock()
	id, ok := m.callIndex[callID]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := m.transcripts.InterviewForCall(ctx, callID)
	if err != nil {
		return "", fmt.Errorf("load call index: %w", err)
	}
	if id == "" {
		return "", ErrSessionNotFound
	}
	return id, nil
}

func (m *Manager) Get(ctx context.Context, interviewID, email string) (*models.SessionResponse, error) {
	s, err := m.resolve(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OwnerEmail != email {
		return nil, ErrForbidden
	}
	return s.snapshot(false), nil
}

// Authorize checks that the session exists and belongs to email.
func (m *Manager) Authorize(ctx context.Context, interviewID, email string) error {
	_, err := m.Get(ctx, interviewID, email)
	return err
}

// Append records one transcript turn. Only sessions in a call accept turns.
func (m *Manager) Append(ctx context.Context, interviewID string, entry models.TranscriptEntry) error {
	s, err := m.resolve(ctx, interviewID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != models.SessionCallStarted {
		s.mu.Unlock()
		return ErrNotActive
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now().UTC()
	}
	if err := m.transcripts.Append(ctx, interviewID, entry); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("append transcript: %w", err)
	}
	s.transcriptCount++
	s.mu.Unlock()

	m.publish(interviewID, Event{Type: EventTypeTranscript, Entry: &entry})
	return nil
}

// End stops the call, hands the transcript to feedback generation and evicts the session.
// Ending a session that another caller already ended returns a nil result. When feedback
// cannot be stored the transcript is kept and a later End retries the evaluation.
func (m *Manager) End(ctx context.Context, interviewID, reason string) (*feedback.Result, error) {
	s, err := m.resolve(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	retry := s.state == models.SessionCallEnded && s.feedbackPending
	if s.state == models.SessionCallEnded && !retry {
		return nil, nil
	}

	// the caller may disconnect; the transcript must still be evaluated
	ctx = context.WithoutCancel(ctx)

	if !retry {
		if err := s.transition(models.SessionCallEnded); err != nil {
			return nil, err
		}
		metrics.VoiceSessionsActive.Dec()

		if err := m.voice.EndCall(ctx, s.callID); err != nil {
			m.logger.Warn("Failed to stop voice call", zap.String("interview_id", interviewID), zap.String("call_id", s.callID), zap.Error(err))
		}
	}

	transcript, err := m.transcripts.List(ctx, interviewID)
	if err != nil {
		m.logger.Error("Failed to read transcript, evaluating as empty", zap.String("interview_id", interviewID), zap.Error(err))
		utils.ReportError(err, map[string]string{"component": "transcript_store", "interview_id": interviewID})
		transcript = nil
	}

	result, err := m.feedback.Generate(ctx, interviewID, transcript)
	if err != nil {
		s.feedbackPending = true
		if saveErr := m.transcripts.SaveSession(ctx, s.record()); saveErr != nil {
			m.logger.Warn("Failed to persist pending session", zap.String("interview_id", interviewID), zap.Error(saveErr))
		}
		m.logger.Error("Feedback generation failed, transcript kept for retry",
			zap.String("interview_id", interviewID),
			zap.String("reason", reason),
			zap.Bool("retry", retry),
			zap.Error(err))

		m.publish(interviewID, Event{Type: EventTypeEnded, State: models.SessionCallEnded})
		m.closeSubscribers(interviewID)
		return nil, fmt.Errorf("generate feedback: %w", err)
	}
	s.feedbackPending = false

	if delErr := m.transcripts.Delete(ctx, interviewID); delErr != nil {
		m.logger.Warn("Failed to delete transcript", zap.String("interview_id", interviewID), zap.Error(delErr))
	}
	if delErr := m.transcripts.DeleteSession(ctx, s.record()); delErr != nil {
		m.logger.Warn("Failed to delete session record", zap.String("interview_id", interviewID), zap.Error(delErr))
	}
	m.evict(interviewID, s)

	m.logger.Info("Voice session ended",
		zap.String("interview_id", interviewID),
		zap.String("reason", reason),
		zap.Bool("retry", retry),
		zap.Int("transcript_entries", len(transcript)))

	m.publish(interviewID, Event{Type: EventTypeEnded, State: models.SessionCallEnded, Feedback: &result.Review})
	m.closeSubscribers(interviewID)
	return result, nil
}

// EndByCall ends the session owning a provider call id.
func (m *Manager) EndByCall(ctx context.Context, callID, reason string) (*feedback.Result, error) {
	interviewID, err := m.InterviewIDForCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	return m.End(ctx, interviewID, reason)
}

func (m *Manager) AppendByCall(ctx context.Context, callID string, entry models.TranscriptEntry) error {
	interviewID, err := m.InterviewIDForCall(ctx, callID)
	if err != nil {
		return err
	}
	return m.Append(ctx, interviewID, entry)
}

func (m *Manager) evict(interviewID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[interviewID] == s {
		delete(m.sessions, interviewID)
	}
	delete(m.callIndex, s.callID)
}

// ReapExpired ends every session whose interview time plus grace has elapsed and retries
// feedback that could not be stored earlier.
func (m *Manager) ReapExpired(ctx context.Context, grace time.Duration) int {
	now := m.now()

	// m.mu is never held while taking a session lock
	m.mu.RLock()
	candidates := make(map[string]*Session, len(m.sessions))
	for id, s := range m.sessions {
		candidates[id] = s
	}
	m.mu.RUnlock()

	var due []string
	for id, s := range candidates {
		if s.due(now, grace) {
			due = append(due, id)
		}
	}

	reaped := 0
	for _, id := range due {
		result, err := m.End(ctx, id, "timeout")
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Error("Failed to reap session", zap.String("interview_id", id), zap.Error(err))
			continue
		}
		if result != nil {
			reaped++
		}
	}
	return reaped
}

// EndAll ends every tracked session, used on shutdown so no transcript goes unevaluated.
func (m *Manager) EndAll(ctx context.Context, reason string) int {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range ids {
		result, err := m.End(ctx, id, reason)
		if err != nil && !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrInvalidTransition) {
			m.logger.Error("Failed to end session", zap.String("interview_id", id), zap.Error(err))
			continue
		}
		if result != nil {
			ended++
		}
	}
	return ended
}

// ActiveCount is the number of sessions currently tracked.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Subscribe streams events for one interview until the session ends or cancel is called.
// Without a live call the returned channel is already closed.
func (m *Manager) Subscribe(interviewID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	m.mu.Lock()
	s, ok := m.sessions[interviewID]
	if !ok {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if m.subscribers[interviewID] == nil {
		m.subscribers[interviewID] = make(map[chan Event]struct{})
	}
	m.subscribers[interviewID][ch] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if subs, ok := m.subscribers[interviewID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(m.subscribers, interviewID)
			}
		}
	}

	// End may have closed the other subscribers before this one registered
	if s.State() != models.SessionCallStarted {
		cancel()
	}
	return ch, cancel
}

// slow subscribers drop events rather than block the call
func (m *Manager) publish(interviewID string, event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.subscribers[interviewID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (m *Manager) closeSubscribers(interviewID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subscribers[interviewID] {
		close(ch)
	}
	delete(m.subscribers, interviewID)
}
