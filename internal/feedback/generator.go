package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/prompts"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"go.uber.org/zap"
)

// Outcome says how a stored review came to be.
type Outcome string

const (
	OutcomeGenerated      Outcome = "generated"
	OutcomeIncomplete     Outcome = "incomplete"
	OutcomeReviewRequired Outcome = "review_required"
	OutcomeSkipped        Outcome = "skipped"
)

var (
	ErrUnparseableFeedback = errors.New("could not parse feedback from model output")
	ErrIncompleteFeedback  = errors.New("feedback is missing rating or recommendation")
)

type Store interface {
	Insert(ctx context.Context, interviewID string, review models.Review) (*models.PostInterview, bool, error)
	GetByInterviewID(ctx context.Context, interviewID string) (*models.PostInterview, error)
}

type Result struct {
	InterviewID string
	Review      models.Review
	Outcome     Outcome
	RawResponse string
}

// Generator turns a finished transcript into a stored review, at most once per interview.
type Generator struct {
	provider      llm.Provider
	promptManager prompts.PromptProvider
	store         Store
	logger        *zap.Logger
}

func NewGenerator(provider llm.Provider, promptManager prompts.PromptProvider, store Store, logger *zap.Logger) *Generator {
	return &Generator{
		provider:      provider,
		promptManager: promptManager,
		store:         store,
		logger:        logger,
	}
}

// Stored reports whether the interview already has a review.
func (g *Generator) Stored(ctx context.Context, interviewID string) (bool, error) {
	_, err := g.store.GetByInterviewID(ctx, interviewID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrFeedbackNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load feedback: %w", err)
	}
}

// Generate never fails because of the model: provider and parse errors are stored as a
// Review Required review. Only storage errors are returned.
func (g *Generator) Generate(ctx context.Context, interviewID string, transcript []models.TranscriptEntry) (*Result, error) {
	existing, err := g.store.GetByInterviewID(ctx, interviewID)
	if err == nil {
		metrics.FeedbackGenerated.WithLabelValues(string(OutcomeSkipped)).Inc()
		return &Result{InterviewID: interviewID, Review: existing.Review(), Outcome: OutcomeSkipped}, nil
	}
	if !errors.Is(err, repositories.ErrFeedbackNotFound) {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	result := &Result{InterviewID: interviewID}
	switch {
	case !models.HasContent(transcript):
		result.Review = models.IncompleteReview()
		result.Outcome = OutcomeIncomplete
	default:
		conversation, err := json.Marshal(transcript)
		if err != nil {
			return nil, fmt.Errorf("encode transcript: %w", err)
		}
		review, raw, err := g.Evaluate(ctx, string(conversation), interviewID)
		result.RawResponse = raw
		if err != nil {
			g.logger.Warn("Feedback generation failed, storing review-required placeholder",
				zap.String("interview_id", interviewID),
				zap.Error(err))
			utils.ReportError(err, map[string]string{"component": "feedback", "interview_id": interviewID})
			result.Review = models.ReviewRequiredReview()
			result.Outcome = OutcomeReviewRequired
		} else {
			result.Review = *review
			result.Outcome = OutcomeGenerated
		}
	}

	row, created, err := g.store.Insert(ctx, interviewID, result.Review)
	if err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	if !created {
		// another writer stored a review first
		result.Review = row.Review()
		result.Outcome = OutcomeSkipped
	}

	metrics.FeedbackGenerated.WithLabelValues(string(result.Outcome)).Inc()
	g.logger.Info("Feedback stored",
		zap.String("interview_id", interviewID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("recommendation", result.Review.Recommendation))
	return result, nil
}

// Evaluate runs one stateless evaluation of a serialized conversation. The raw model
// text is returned whenever the provider answered, even if it could not be parsed.
func (g *Generator) Evaluate(ctx context.Context, conversation, requestID string) (*models.Review, string, error) {
	prompt, err := g.promptManager.BuildPrompt(prompts.ModeFeedback, prompts.VariantDefault, prompts.FeedbackPromptData{
		Conversation: conversation,
	})
	if err != nil {
		return nil, "", fmt.Errorf("build feedback prompt: %w", err)
	}

	response, err := g.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		return nil, "", err
	}

	review, err := ParseReview(response.Content)
	if err != nil {
		return nil, response.Content, err
	}
	return review, response.Content, nil
}

type reviewPayload struct {
	Rating            map[string]interface{} `json:"rating"`
	Summary           string                 `json:"summary"`
	Recommendation    string                 `json:"recommendation"`
	RecommendationMsg string                 `json:"recommendationMsg"`
}

// ParseReview accepts {"feedback": {...}} or the bare review object, anywhere in the text.
func ParseReview(text string) (*models.Review, error) {
	payload, _, err := utils.ExtractPayload(text, utils.PayloadObject)
	if err != nil {
		return nil, ErrUnparseableFeedback
	}

	var wrapper struct {
		Feedback json.RawMessage `json:"feedback"`
	}
	if err := json.Unmarshal(payload, &wrapper); err == nil && len(wrapper.Feedback) > 0 && string(wrapper.Feedback) != "null" {
		payload = wrapper.Feedback
	}

	var parsed reviewPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableFeedback, err)
	}
	if parsed.Rating == nil || strings.TrimSpace(parsed.Recommendation) == "" {
		return nil, ErrIncompleteFeedback
	}

	review := models.Review{
		Rating: models.Rating{
			TechnicalSkills: score(parsed.Rating["technicalSkills"]),
			Communication:   score(parsed.Rating["communication"]),
			ProblemSolving:  score(parsed.Rating["problemSolving"]),
			Experience:      score(parsed.Rating["experience"]),
		},
		Summary:           parsed.Summary,
		Recommendation:    parsed.Recommendation,
		RecommendationMsg: parsed.RecommendationMsg,
	}.Normalize()
	return &review, nil
}

// models sometimes emit 7.5 or "8"; anything else scores zero
func score(value interface{}) int {
	switch v := value.(type) {
	case float64:
		return int(math.Round(v))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}
