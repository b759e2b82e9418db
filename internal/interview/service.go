package interview

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const saveWarning = "Questions were generated but could not be saved. No credit was used; please try again."

type InterviewStore interface {
	CreateWithCredit(ctx context.Context, interview *models.InterviewDetails) (int, error)
}

// Service runs the creation flow: credit check, generation, then save with credit consumption.
type Service struct {
	gate      *CreditGate
	generator *QuestionGenerator
	store     InterviewStore
	logger    *zap.Logger
}

func NewService(gate *CreditGate, generator *QuestionGenerator, store InterviewStore, logger *zap.Logger) *Service {
	return &Service{
		gate:      gate,
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// Create never calls the model for a user without credits. When the error is
// ErrUnparseableQuestions the returned response still carries the raw model output.
func (s *Service) Create(ctx context.Context, email string, req *models.CreateInterviewRequest, requestID string) (*models.CreateInterviewResponse, error) {
	if _, err := s.gate.Check(ctx, email); err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, req, requestID)
	if err != nil {
		if generated != nil {
			return &models.CreateInterviewResponse{
				Success:     false,
				Questions:   []models.Question{},
				RawResponse: generated.RawResponse,
				Metadata:    generated.Metadata,
			}, err
		}
		return nil, err
	}

	resp := &models.CreateInterviewResponse{
		Success:     true,
		Questions:   generated.Questions,
		RawResponse: generated.RawResponse,
		Metadata:    generated.Metadata,
	}

	record := &models.InterviewDetails{
		InterviewID:        uuid.NewString(),
		UserEmail:          email,
		JobPosition:        req.JobPosition,
		JobDescription:     req.JobDescription,
		ExperienceLevel:    req.ExperienceLevel,
		DifficultyLevel:    req.DifficultyLevel,
		InterviewTime:      req.DurationMinutes(),
		InterviewQuestions: datatypes.NewJSONType(generated.Questions),
	}

	remaining, err := s.store.CreateWithCredit(ctx, record)
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		// the balance was spent by a concurrent request after the pre-check
		return nil, err
	case err != nil:
		s.logger.Error("Failed to save interview",
			zap.String("request_id", requestID),
			zap.String("user_email", email),
			zap.Error(err))
		utils.ReportError(err, map[string]string{"component": "interview_store", "request_id": requestID})
		resp.Warning = saveWarning
		return resp, nil
	}

	metrics.InterviewsCreated.Inc()
	metrics.CreditsConsumed.Inc()

	resp.InterviewID = record.InterviewID
	resp.CreditsRemaining = &remaining
	resp.Saved = true

	s.logger.Info("Interview created",
		zap.String("request_id", requestID),
		zap.String("interview_id", record.InterviewID),
		zap.Int("questions", len(generated.Questions)),
		zap.Int("credits_remaining", remaining))

	return resp, nil
}
