package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"text/template"

	"github.com/go-chi/chi/v5"

	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/session"
)

type mockProvider struct {
	generateContentFn func(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error)
	getProviderNameFn func() string
}

func (m *mockProvider) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	if m.generateContentFn == nil {
		return &models.GenerationResponse{}, nil
	}
	return m.generateContentFn(ctx, prompt, requestID)
}

func (m *mockProvider) GetProviderName() string {
	if m.getProviderNameFn == nil {
		return "mock"
	}
	return m.getProviderNameFn()
}

type mockPromptManager struct {
	buildPromptFn  func(mode, variant string, data interface{}) (string, error)
	getTemplatesFn func() map[string]map[string]*template.Template
}

func (m *mockPromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	if m.buildPromptFn == nil {
		return "mock prompt", nil
	}
	return m.buildPromptFn(mode, variant, data)
}

func (m *mockPromptManager) GetTemplates() map[string]map[string]*template.Template {
	if m.getTemplatesFn == nil {
		return map[string]map[string]*template.Template{
			"questions": {
				"default": template.Must(template.New("test").Parse("test")),
			},
		}
	}
	return m.getTemplatesFn()
}

type mockInterviewStore struct {
	interviews map[string]*models.InterviewDetails
	summaries  []models.InterviewSummary
	deleteFn   func(interviewID, email string) error
	err        error
}

func (m *mockInterviewStore) GetByInterviewID(_ context.Context, interviewID string) (*models.InterviewDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	record, ok := m.interviews[interviewID]
	if !ok {
		return nil, repositories.ErrInterviewNotFound
	}
	return record, nil
}

func (m *mockInterviewStore) ListByUser(context.Context, string) ([]models.InterviewSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summaries, nil
}

func (m *mockInterviewStore) DeleteForOwner(_ context.Context, interviewID, email string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(interviewID, email)
}

type mockFeedbackReader struct {
	rows map[string]*models.PostInterview
}

func (m *mockFeedbackReader) GetByInterviewID(_ context.Context, interviewID string) (*models.PostInterview, error) {
	row, ok := m.rows[interviewID]
	if !ok {
		return nil, repositories.ErrFeedbackNotFound
	}
	return row, nil
}

type mockFeedbackService struct {
	generateFn func(ctx context.Context, interviewID string, transcript []models.TranscriptEntry) (*feedback.Result, error)
	evaluateFn func(ctx context.Context, conversation, requestID string) (*models.Review, string, error)
}

func (m *mockFeedbackService) Generate(ctx context.Context, interviewID string, transcript []models.TranscriptEntry) (*feedback.Result, error) {
	return m.generateFn(ctx, interviewID, transcript)
}

func (m *mockFeedbackService) Evaluate(ctx context.Context, conversation, requestID string) (*models.Review, string, error) {
	return m.evaluateFn(ctx, conversation, requestID)
}

type mockSessions struct {
	startFn        func(interviewID, email, name string) (*models.SessionResponse, error)
	getFn          func(interviewID, email string) (*models.SessionResponse, error)
	authorizeErr   error
	appendErr      error
	endFn          func(interviewID, reason string) (*feedback.Result, error)
	appended       []models.TranscriptEntry
	appendedByCall map[string][]models.TranscriptEntry
	endedCalls     []string
	events         chan session.Event
}

func (m *mockSessions) Start(_ context.Context, interviewID, email, name string) (*models.SessionResponse, error) {
	return m.startFn(interviewID, email, name)
}

func (m *mockSessions) Get(_ context.Context, interviewID, email string) (*models.SessionResponse, error) {
	return m.getFn(interviewID, email)
}

func (m *mockSessions) Authorize(context.Context, string, string) error {
	return m.authorizeErr
}

func (m *mockSessions) Append(_ context.Context, _ string, entry models.TranscriptEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, entry)
	return nil
}

func (m *mockSessions) End(_ context.Context, interviewID, reason string) (*feedback.Result, error) {
	return m.endFn(interviewID, reason)
}

func (m *mockSessions) AppendByCall(_ context.Context, callID string, entry models.TranscriptEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	if m.appendedByCall == nil {
		m.appendedByCall = map[string][]models.TranscriptEntry{}
	}
	m.appendedByCall[callID] = append(m.appendedByCall[callID], entry)
	return nil
}

func (m *mockSessions) EndByCall(_ context.Context, callID, _ string) (*feedback.Result, error) {
	m.endedCalls = append(m.endedCalls, callID)
	if m.endFn == nil {
		return nil, session.ErrSessionNotFound
	}
	return m.endFn(callID, "provider")
}

func (m *mockSessions) Subscribe(string) (<-chan session.Event, func()) {
	if m.events == nil {
		m.events = make(chan session.Event, 4)
	}
	return m.events, func() {}
}

var (
	_ SessionController = (*mockSessions)(nil)
	_ FeedbackService   = (*mockFeedbackService)(nil)
	_ InterviewStore    = (*mockInterviewStore)(nil)
)

func ownedInterview(id, email string) *models.InterviewDetails {
	return &models.InterviewDetails{InterviewID: id, UserEmail: email, JobPosition: "SRE", InterviewTime: 15}
}

// serve routes one request through a chi router so URL params and validation run as in production.
// An empty email sends the request unauthenticated.
func serve(method, pattern, target, body, email string, handler http.HandlerFunc, mws ...func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email != "" {
				r = r.WithContext(middleware.WithIdentity(r.Context(), &middleware.Identity{Email: email}))
			}
			next.ServeHTTP(w, r)
		})
	})
	router.With(mws...).Method(method, pattern, handler)

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
