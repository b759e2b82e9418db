package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/interview"
	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

const billingPath = "/billing"

type InterviewCreator interface {
	Create(ctx context.Context, email string, req *models.CreateInterviewRequest, requestID string) (*models.CreateInterviewResponse, error)
}

type InterviewStore interface {
	GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewDetails, error)
	ListByUser(ctx context.Context, email string) ([]models.InterviewSummary, error)
	DeleteForOwner(ctx context.Context, interviewID, email string) error
}

type InterviewHandler struct {
	service InterviewCreator
	store   InterviewStore
	logger  *zap.Logger
}

func NewInterviewHandler(service InterviewCreator, store InterviewStore, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		store:   store,
		logger:  logger,
	}
}

func (h *InterviewHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.CreateInterviewRequest](r)
	reqID := requestID(r)

	resp, err := h.service.Create(r.Context(), id.Email, req, reqID)
	if err != nil {
		h.writeCreateError(w, err, resp, reqID)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) writeCreateError(w http.ResponseWriter, err error, resp *models.CreateInterviewResponse, reqID string) {
	switch {
	case errors.Is(err, interview.ErrInsufficientCredits):
		utils.JSON(w, http.StatusPaymentRequired, models.FailureResponse{
			Code:   "insufficient_credits",
			Error:  "You have no interview credits left. Purchase more to create an interview.",
			Action: billingPath,
		})
	case errors.Is(err, interview.ErrUserNotFound):
		utils.JSON(w, http.StatusNotFound, models.FailureResponse{
			Code:  "user_not_found",
			Error: "User not found. Sign in again to create your profile.",
		})
	case errors.Is(err, interview.ErrUnparseableQuestions):
		failure := models.FailureResponse{
			Code:  "unparseable_response",
			Error: "Failed to parse questions from AI response",
		}
		if resp != nil {
			failure.RawResponse = resp.RawResponse
		}
		utils.JSON(w, http.StatusBadGateway, failure)
	case llm.IsRateLimit(err):
		utils.JSON(w, http.StatusTooManyRequests, models.FailureResponse{
			Code:  llm.ErrCodeRateLimit,
			Error: "The AI service is busy. Please try again shortly.",
		})
	case llm.ErrorCode(err) != "":
		h.logger.Error("AI provider error", zap.Error(err), zap.String("request_id", reqID))
		utils.JSON(w, http.StatusBadGateway, models.FailureResponse{
			Code:  "ai_error",
			Error: "Failed to generate interview questions",
		})
	default:
		h.logger.Error("Interview creation failed", zap.Error(err), zap.String("request_id", reqID))
		utils.ReportError(err, map[string]string{"component": "interview_handler", "request_id": reqID})
		utils.JSON(w, http.StatusInternalServerError, models.FailureResponse{
			Code:  "internal_error",
			Error: "Failed to create interview",
		})
	}
}

func (h *InterviewHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviews, err := h.store.ListByUser(r.Context(), id.Email)
	if err != nil {
		h.logger.Error("Failed to list interviews", zap.Error(err), zap.String("user_email", id.Email))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to load interviews")
		return
	}
	utils.JSON(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	record, ok := loadOwnedInterview(w, r, h.store, id.Email, h.logger)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, record)
}

func (h *InterviewHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	interviewID := chi.URLParam(r, "interview_id")

	err := h.store.DeleteForOwner(r.Context(), interviewID, id.Email)
	switch {
	case errors.Is(err, repositories.ErrInterviewNotFound):
		writeError(w, http.StatusNotFound, "interview_not_found", "Interview not found")
	case errors.Is(err, repositories.ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", "This interview belongs to another user")
	case err != nil:
		h.logger.Error("Failed to delete interview", zap.Error(err), zap.String("interview_id", interviewID))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to delete interview")
	default:
		h.logger.Info("Interview deleted", zap.String("interview_id", interviewID))
		utils.JSON(w, http.StatusOK, models.Resp{OK: true, Info: interviewID})
	}
}

type InterviewGetter interface {
	GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewDetails, error)
}

// loadOwnedInterview writes the error response itself and reports whether the caller may continue.
func loadOwnedInterview(w http.ResponseWriter, r *http.Request, store InterviewGetter, email string, logger *zap.Logger) (*models.InterviewDetails, bool) {
	interviewID := chi.URLParam(r, "interview_id")
	record, err := store.GetByInterviewID(r.Context(), interviewID)
	if errors.Is(err, repositories.ErrInterviewNotFound) {
		writeError(w, http.StatusNotFound, "interview_not_found", "Interview not found")
		return nil, false
	}
	if err != nil {
		logger.Error("Failed to load interview", zap.Error(err), zap.String("interview_id", interviewID))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to load interview")
		return nil, false
	}
	if record.UserEmail != email {
		writeError(w, http.StatusForbidden, "forbidden", "This interview belongs to another user")
		return nil, false
	}
	return record, true
}
