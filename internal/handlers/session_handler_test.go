package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/session"
	"github.com/vansh1925/NexPrep-v2/internal/voice"
)

const testWebhookSecret = "hook-secret"

func newTestSessionHandler(sessions *mockSessions, rows map[string]*models.PostInterview) *SessionHandler {
	interviews := &mockInterviewStore{interviews: map[string]*models.InterviewDetails{
		"abc": ownedInterview("abc", "jane@example.com"),
	}}
	return NewSessionHandler(sessions, interviews, &mockFeedbackReader{rows: rows}, testWebhookSecret, nil, zap.NewNop())
}

func TestSessionStartHandler(t *testing.T) {
	var gotName string
	sessions := &mockSessions{startFn: func(interviewID, email, name string) (*models.SessionResponse, error) {
		gotName = name
		switch interviewID {
		case "missing":
			return nil, errors.New("start voice call: provider down")
		case "other":
			return nil, session.ErrForbidden
		}
		return &models.SessionResponse{InterviewID: interviewID, State: models.SessionCallStarted, CallID: "call-1"}, nil
	}}
	handler := newTestSessionHandler(sessions, nil)

	rec := serve(http.MethodPost, "/sessions/{interview_id}/start", "/sessions/abc/start", "", "jane@example.com", handler.StartHandler)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotName != "jane" {
		t.Fatalf("expected e-mail local part as candidate name, got %q", gotName)
	}

	rec = serve(http.MethodPost, "/sessions/{interview_id}/start", "/sessions/other/start", "", "jane@example.com", handler.StartHandler)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = serve(http.MethodPost, "/sessions/{interview_id}/start", "/sessions/missing/start", "", "jane@example.com", handler.StartHandler)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestSessionGetHandler(t *testing.T) {
	sessions := &mockSessions{getFn: func(interviewID, _ string) (*models.SessionResponse, error) {
		if interviewID != "abc" {
			return nil, session.ErrSessionNotFound
		}
		return &models.SessionResponse{InterviewID: "abc", State: models.SessionCallStarted, TranscriptCount: 3}, nil
	}}
	handler := newTestSessionHandler(sessions, nil)

	rec := serve(http.MethodGet, "/sessions/{interview_id}", "/sessions/abc", "", "jane@example.com", handler.GetHandler)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"transcript_count":3`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(http.MethodGet, "/sessions/{interview_id}", "/sessions/zzz", "", "jane@example.com", handler.GetHandler)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSessionTranscriptHandler(t *testing.T) {
	sessions := &mockSessions{}
	handler := newTestSessionHandler(sessions, nil)
	validate := middleware.ValidateRequest[*models.TranscriptEventRequest]()

	rec := serve(http.MethodPost, "/sessions/{interview_id}/transcript", "/sessions/abc/transcript",
		`{"role":"User","content":"I would shard by tenant"}`, "jane@example.com", handler.TranscriptHandler, validate)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sessions.appended) != 1 || sessions.appended[0].Role != "user" {
		t.Fatalf("unexpected appended entries %+v", sessions.appended)
	}

	sessions.appendErr = session.ErrNotActive
	rec = serve(http.MethodPost, "/sessions/{interview_id}/transcript", "/sessions/abc/transcript",
		`{"role":"user","content":"late"}`, "jane@example.com", handler.TranscriptHandler, validate)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = serve(http.MethodPost, "/sessions/{interview_id}/transcript", "/sessions/abc/transcript",
		`{"role":"user"}`, "jane@example.com", handler.TranscriptHandler, validate)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionEndHandler(t *testing.T) {
	validate := middleware.ValidateRequest[*models.EndSessionRequest]()
	end := func(handler *SessionHandler, body string) *httptest.ResponseRecorder {
		return serve(http.MethodPost, "/sessions/{interview_id}/end", "/sessions/abc/end", body, "jane@example.com", handler.EndHandler, validate)
	}

	t.Run("requires confirmation", func(t *testing.T) {
		handler := newTestSessionHandler(&mockSessions{}, nil)
		for _, body := range []string{"", `{}`, `{"confirm":false}`} {
			rec := end(handler, body)
			if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "confirmation_required") {
				t.Fatalf("body %q: expected 409 confirmation_required, got %d %s", body, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("ends and returns feedback", func(t *testing.T) {
		sessions := &mockSessions{endFn: func(interviewID, reason string) (*feedback.Result, error) {
			if reason != "user" {
				t.Fatalf("unexpected reason %s", reason)
			}
			return &feedback.Result{InterviewID: interviewID, Review: models.IncompleteReview(), Outcome: feedback.OutcomeIncomplete}, nil
		}}
		rec := end(newTestSessionHandler(sessions, nil), `{"confirm":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeFeedback(t, rec.Body.Bytes())
		if resp.Feedback.Recommendation != models.RecommendationIncomplete {
			t.Fatalf("unexpected feedback %+v", resp)
		}
	})

	t.Run("second end returns stored feedback", func(t *testing.T) {
		sessions := &mockSessions{authorizeErr: session.ErrSessionNotFound}
		rows := map[string]*models.PostInterview{"abc": storedRow("abc", models.Review{Recommendation: models.RecommendationReject})}
		rec := end(newTestSessionHandler(sessions, rows), `{"confirm":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		resp := decodeFeedback(t, rec.Body.Bytes())
		if resp.Outcome != string(feedback.OutcomeSkipped) || resp.Feedback.Recommendation != models.RecommendationReject {
			t.Fatalf("unexpected feedback %+v", resp)
		}
	})

	t.Run("concurrent end returns stored feedback", func(t *testing.T) {
		sessions := &mockSessions{endFn: func(string, string) (*feedback.Result, error) { return nil, nil }}
		rows := map[string]*models.PostInterview{"abc": storedRow("abc", models.Review{Recommendation: models.RecommendationMaybe})}
		rec := end(newTestSessionHandler(sessions, rows), `{"confirm":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("no session and no feedback", func(t *testing.T) {
		sessions := &mockSessions{authorizeErr: session.ErrSessionNotFound}
		rec := end(newTestSessionHandler(sessions, nil), `{"confirm":true}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func webhookRequest(handler *SessionHandler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/voice/webhook", strings.NewReader(body))
	req.Header.Set(voice.WebhookSecretHeader, secret)
	rec := httptest.NewRecorder()
	handler.WebhookHandler(rec, req)
	return rec
}

func TestWebhookHandler(t *testing.T) {
	sessions := &mockSessions{endFn: func(id, _ string) (*feedback.Result, error) {
		return &feedback.Result{InterviewID: id}, nil
	}}
	handler := newTestSessionHandler(sessions, nil)

	transcript := `{"message":{"type":"transcript","role":"user","transcriptType":"final","transcript":"Hello there","call":{"id":"call-1"}}}`
	if rec := webhookRequest(handler, "wrong", transcript); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", rec.Code)
	}

	if rec := webhookRequest(handler, testWebhookSecret, transcript); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := sessions.appendedByCall["call-1"]; len(got) != 1 || got[0].Content != "Hello there" {
		t.Fatalf("transcript not appended: %+v", sessions.appendedByCall)
	}

	report := `{"message":{"type":"end-of-call-report","endedReason":"customer-ended-call","call":{"id":"call-1"}}}`
	if rec := webhookRequest(handler, testWebhookSecret, report); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sessions.endedCalls) != 1 || sessions.endedCalls[0] != "call-1" {
		t.Fatalf("expected call to be ended, got %v", sessions.endedCalls)
	}

	if rec := webhookRequest(handler, testWebhookSecret, `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestWebhookHandlerUnknownCallIsAcknowledged(t *testing.T) {
	sessions := &mockSessions{appendErr: session.ErrSessionNotFound}
	handler := newTestSessionHandler(sessions, nil)

	body := `{"message":{"type":"transcript","role":"assistant","transcriptType":"final","transcript":"Hi","call":{"id":"gone"}}}`
	if rec := webhookRequest(handler, testWebhookSecret, body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestWebhookHandlerRejectsWhenSecretUnset(t *testing.T) {
	sessions := &mockSessions{}
	handler := NewSessionHandler(sessions, nil, nil, "", nil, zap.NewNop())

	body := `{"message":{"type":"end-of-call-report","call":{"id":"call-1"}}}`
	for _, secret := range []string{"", "anything"} {
		if rec := webhookRequest(handler, secret, body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 with no configured secret, got %d", rec.Code)
		}
	}
	if len(sessions.endedCalls) != 0 {
		t.Fatalf("unauthenticated webhook ended calls: %v", sessions.endedCalls)
	}
}

func TestStreamHandlerClosesWhenSessionAlreadyEnded(t *testing.T) {
	// the session ended between Authorize and Subscribe
	sessions := &mockSessions{events: make(chan session.Event)}
	close(sessions.events)
	handler := newTestSessionHandler(sessions, nil)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), &middleware.Identity{Email: "jane@example.com"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Get("/sessions/{interview_id}/stream", handler.StreamHandler)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/abc/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
}

func TestStreamHandler(t *testing.T) {
	sessions := &mockSessions{events: make(chan session.Event, 4)}
	handler := newTestSessionHandler(sessions, nil)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), &middleware.Identity{Email: "jane@example.com"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Get("/sessions/{interview_id}/stream", handler.StreamHandler)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/abc/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// an invalid client frame is answered with an error frame
	if err := conn.WriteJSON(map[string]string{"role": "user"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var errFrame streamError
	if err := conn.ReadJSON(&errFrame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if errFrame.Type != "error" || errFrame.Code != "missing_content" {
		t.Fatalf("unexpected error frame %+v", errFrame)
	}

	review := models.IncompleteReview()
	sessions.events <- session.Event{Type: session.EventTypeEnded, State: models.SessionCallEnded, Feedback: &review}
	close(sessions.events)

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event session.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != session.EventTypeEnded || event.Feedback == nil {
		t.Fatalf("unexpected event %+v", event)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
}
