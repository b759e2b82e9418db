package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/session"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"github.com/vansh1925/NexPrep-v2/internal/voice"
)

const (
	maxWebhookBytes = 1 << 20

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type SessionController interface {
	Start(ctx context.Context, interviewID, email, candidateName string) (*models.SessionResponse, error)
	Get(ctx context.Context, interviewID, email string) (*models.SessionResponse, error)
	Authorize(ctx context.Context, interviewID, email string) error
	Append(ctx context.Context, interviewID string, entry models.TranscriptEntry) error
	End(ctx context.Context, interviewID, reason string) (*feedback.Result, error)
	AppendByCall(ctx context.Context, callID string, entry models.TranscriptEntry) error
	EndByCall(ctx context.Context, callID, reason string) (*feedback.Result, error)
	Subscribe(interviewID string) (<-chan session.Event, func())
}

type SessionHandler struct {
	sessions      SessionController
	interviews    InterviewGetter
	feedback      FeedbackReader
	webhookSecret string
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewSessionHandler accepts websocket upgrades only from allowedOrigins; an empty list allows any origin.
func NewSessionHandler(sessions SessionController, interviews InterviewGetter, feedbackReader FeedbackReader, webhookSecret string, allowedOrigins []string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:      sessions,
		interviews:    interviews,
		feedback:      feedbackReader,
		webhookSecret: webhookSecret,
		upgrader:      websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		logger:        logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(set) == 0 || origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *SessionHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")

	resp, err := h.sessions.Start(r.Context(), interviewID, id.Email, displayName(id))
	if err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")

	resp, err := h.sessions.Get(r.Context(), interviewID, id.Email)
	if err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")
	req := middleware.GetValidatedRequest[*models.TranscriptEventRequest](r)

	if err := h.sessions.Authorize(r.Context(), interviewID, id.Email); err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}
	if err := h.sessions.Append(r.Context(), interviewID, models.TranscriptEntry{Role: req.Role, Content: req.Content}); err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}
	utils.JSON(w, http.StatusAccepted, models.Resp{OK: true, Info: interviewID})
}

// EndHandler requires an explicit confirmation. Ending a session that is already gone
// returns its stored feedback.
func (h *SessionHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")
	req := middleware.GetValidatedRequest[*models.EndSessionRequest](r)
	if !req.Confirm {
		writeError(w, http.StatusConflict, "confirmation_required", "Ending the interview must be confirmed")
		return
	}

	err := h.sessions.Authorize(r.Context(), interviewID, id.Email)
	if errors.Is(err, session.ErrSessionNotFound) {
		h.writeStoredFeedback(w, r, id.Email)
		return
	}
	if err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}

	result, err := h.sessions.End(r.Context(), interviewID, "user")
	switch {
	case errors.Is(err, session.ErrSessionNotFound), err == nil && result == nil:
		// another request ended it first
		h.writeStoredFeedback(w, r, id.Email)
	case err != nil:
		h.logger.Error("Failed to end session", zap.Error(err), zap.String("interview_id", interviewID))
		writeError(w, http.StatusInternalServerError, "feedback_error", "The interview ended but feedback could not be saved yet; it will be retried")
	default:
		utils.JSON(w, http.StatusOK, feedbackResponse(result))
	}
}

func (h *SessionHandler) writeStoredFeedback(w http.ResponseWriter, r *http.Request, email string) {
	record, ok := loadOwnedInterview(w, r, h.interviews, email, h.logger)
	if !ok {
		return
	}
	row, err := h.feedback.GetByInterviewID(r.Context(), record.InterviewID)
	if errors.Is(err, repositories.ErrFeedbackNotFound) {
		writeError(w, http.StatusNotFound, "session_not_found", "No active session for this interview")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load feedback", zap.Error(err), zap.String("interview_id", record.InterviewID))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to load feedback")
		return
	}
	utils.JSON(w, http.StatusOK, models.FeedbackResponse{
		InterviewID: record.InterviewID,
		Feedback:    row.Review(),
		Outcome:     string(feedback.OutcomeSkipped),
	})
}

type streamError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StreamHandler upgrades to a websocket. Client frames are transcript events; server
// frames are session events. The socket closes when the session ends.
func (h *SessionHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")
	if err := h.sessions.Authorize(r.Context(), interviewID, id.Email); err != nil {
		h.writeSessionError(w, err, interviewID)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err), zap.String("interview_id", interviewID))
		return
	}
	defer conn.Close()

	// closed right away when the session ended after Authorize
	events, cancel := h.sessions.Subscribe(interviewID)
	defer cancel()

	var writeMu sync.Mutex
	send := func(messageType int, v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if v == nil {
			return conn.WriteMessage(messageType, nil)
		}
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var msg models.TranscriptEventRequest
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if err := msg.Validate(); err != nil {
				var errResp *models.ErrorResponse
				if errors.As(err, &errResp) {
					_ = send(websocket.TextMessage, streamError{Type: "error", Code: errResp.Code, Message: errResp.Message})
				}
				continue
			}
			entry := models.TranscriptEntry{Role: msg.Role, Content: msg.Content}
			if err := h.sessions.Append(r.Context(), interviewID, entry); err != nil {
				_ = send(websocket.TextMessage, streamError{Type: "error", Code: sessionErrorCode(err), Message: err.Error()})
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				writeMu.Lock()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(writeWait))
				writeMu.Unlock()
				return
			}
			if err := send(websocket.TextMessage, event); err != nil {
				return
			}
		case <-ticker.C:
			if err := send(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// WebhookHandler receives voice provider server messages. Events for calls this process
// does not know are acknowledged so the provider does not retry them.
func (h *SessionHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !voice.VerifySecret(h.webhookSecret, r.Header.Get(voice.WebhookSecretHeader)) {
		writeError(w, http.StatusUnauthorized, "invalid_secret", "Webhook secret mismatch")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read webhook body")
		return
	}
	event, err := voice.ParseEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_event", err.Error())
		return
	}

	ctx := r.Context()
	switch event.Kind {
	case voice.EventTranscript:
		err = h.sessions.AppendByCall(ctx, event.CallID, models.TranscriptEntry{
			Role:      event.Role,
			Content:   event.Content,
			Timestamp: event.Timestamp,
		})
	case voice.EventEnded:
		_, err = h.sessions.EndByCall(ctx, event.CallID, event.Reason)
	case voice.EventStarted:
		h.logger.Debug("Voice call reported in progress", zap.String("call_id", event.CallID))
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNotActive):
		h.logger.Debug("Webhook event for inactive call",
			zap.String("call_id", event.CallID),
			zap.String("kind", string(event.Kind)))
	case err != nil:
		h.logger.Error("Failed to handle webhook event",
			zap.Error(err),
			zap.String("call_id", event.CallID),
			zap.String("kind", string(event.Kind)))
	}
	utils.JSON(w, http.StatusOK, models.Resp{OK: true, Info: string(event.Kind)})
}

func sessionErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, session.ErrNotActive):
		return "session_not_active"
	case errors.Is(err, session.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "session_error"
	}
}

func (h *SessionHandler) writeSessionError(w http.ResponseWriter, err error, interviewID string) {
	switch {
	case errors.Is(err, repositories.ErrInterviewNotFound):
		writeError(w, http.StatusNotFound, "interview_not_found", "Interview not found")
	case errors.Is(err, session.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "This interview belongs to another user")
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "No active session for this interview")
	case errors.Is(err, session.ErrNotActive), errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, sessionErrorCode(err), err.Error())
	default:
		h.logger.Error("Voice session error", zap.Error(err), zap.String("interview_id", interviewID))
		utils.ReportError(err, map[string]string{"component": "session_handler", "interview_id": interviewID})
		writeError(w, http.StatusBadGateway, "voice_error", "Failed to reach the voice provider")
	}
}
