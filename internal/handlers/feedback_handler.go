package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

// outcome reported for reviews read back from storage
const outcomeStored = "stored"

type FeedbackService interface {
	Generate(ctx context.Context, interviewID string, transcript []models.TranscriptEntry) (*feedback.Result, error)
	Evaluate(ctx context.Context, conversation, requestID string) (*models.Review, string, error)
}

type FeedbackReader interface {
	GetByInterviewID(ctx context.Context, interviewID string) (*models.PostInterview, error)
}

type FeedbackHandler struct {
	service    FeedbackService
	reader     FeedbackReader
	interviews InterviewGetter
	logger     *zap.Logger
}

func NewFeedbackHandler(service FeedbackService, reader FeedbackReader, interviews InterviewGetter, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service:    service,
		reader:     reader,
		interviews: interviews,
		logger:     logger,
	}
}

func (h *FeedbackHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	record, ok := loadOwnedInterview(w, r, h.interviews, id.Email, h.logger)
	if !ok {
		return
	}

	row, err := h.reader.GetByInterviewID(r.Context(), record.InterviewID)
	if errors.Is(err, repositories.ErrFeedbackNotFound) {
		writeError(w, http.StatusNotFound, "feedback_not_found", "Feedback has not been generated for this interview")
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
		Outcome:     outcomeStored,
	})
}

// GenerateHandler evaluates a conversation for an interview and stores the review.
// A second call returns the review stored by the first.
func (h *FeedbackHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	record, ok := loadOwnedInterview(w, r, h.interviews, id.Email, h.logger)
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.GenerateFeedbackRequest](r)

	result, err := h.service.Generate(r.Context(), record.InterviewID, req.Conversation)
	if err != nil {
		h.logger.Error("Feedback generation failed", zap.Error(err), zap.String("interview_id", record.InterviewID))
		utils.ReportError(err, map[string]string{"component": "feedback_handler", "interview_id": record.InterviewID})
		writeError(w, http.StatusInternalServerError, "feedback_error", "Failed to generate feedback")
		return
	}
	utils.JSON(w, http.StatusOK, feedbackResponse(result))
}

// PreviewHandler is the stateless evaluation. Nothing is stored; when the model output
// cannot be parsed the fence-stripped text is returned as cleanedContent.
func (h *FeedbackHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.PreviewFeedbackRequest](r)
	reqID := requestID(r)

	review, raw, err := h.service.Evaluate(r.Context(), conversationText(req.Conversation), reqID)
	switch {
	case err == nil:
		utils.JSON(w, http.StatusOK, map[string]interface{}{"feedback": review})
	case raw != "":
		h.logger.Warn("Feedback preview could not be parsed", zap.Error(err), zap.String("request_id", reqID))
		utils.JSON(w, http.StatusOK, map[string]string{"cleanedContent": utils.StripFences(raw)})
	case llm.IsRateLimit(err):
		writeError(w, http.StatusTooManyRequests, llm.ErrCodeRateLimit, "The AI service is busy. Please try again shortly.")
	default:
		h.logger.Error("AI provider error", zap.Error(err), zap.String("request_id", reqID))
		writeError(w, http.StatusBadGateway, "ai_error", "Failed to generate feedback")
	}
}

// conversation may be sent as a JSON string or as structured JSON
func conversationText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// the raw model text is only surfaced when it could not be turned into a review
func feedbackResponse(result *feedback.Result) models.FeedbackResponse {
	resp := models.FeedbackResponse{
		InterviewID: result.InterviewID,
		Feedback:    result.Review,
		Outcome:     string(result.Outcome),
	}
	if result.Outcome == feedback.OutcomeReviewRequired {
		resp.RawResponse = result.RawResponse
	}
	return resp
}
