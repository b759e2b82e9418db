package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/prompts"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"go.uber.org/zap"
)

const (
	missingQuestionText = "Question text missing"
	missingTests        = "Evaluation criteria not provided"
	missingSampleAnswer = "Sample answer not provided"
)

// ErrUnparseableQuestions means the model answered but no question array could be extracted.
var ErrUnparseableQuestions = errors.New("could not parse interview questions from model output")

// SuggestedQuestionCount is one question per five minutes, never fewer than five.
func SuggestedQuestionCount(minutes int) int {
	count := minutes / models.MinutesPerQuestion
	if count < models.MinQuestionCount {
		return models.MinQuestionCount
	}
	return count
}

type GeneratedQuestions struct {
	Questions   []models.Question
	RawResponse string
	Metadata    models.QuestionMetadata
}

type QuestionGenerator struct {
	provider      llm.Provider
	promptManager prompts.PromptProvider
	logger        *zap.Logger
}

func NewQuestionGenerator(provider llm.Provider, promptManager prompts.PromptProvider, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{
		provider:      provider,
		promptManager: promptManager,
		logger:        logger,
	}
}

// BuildPrompt renders the question prompt and returns it with the target question count.
func (g *QuestionGenerator) BuildPrompt(req *models.CreateInterviewRequest) (string, int, error) {
	count := SuggestedQuestionCount(req.DurationMinutes())
	prompt, err := g.promptManager.BuildPrompt(prompts.ModeQuestions, prompts.VariantDefault, prompts.QuestionPromptData{
		QuestionCount:     count,
		JobPosition:       req.JobPosition,
		JobDescription:    req.JobDescription,
		ExperienceLevel:   models.ExperienceLevelLabel(req.ExperienceLevel),
		InterviewDuration: string(req.InterviewDuration),
		DifficultyLevel:   req.DifficultyLevel,
	})
	if err != nil {
		return "", 0, fmt.Errorf("build question prompt: %w", err)
	}
	return prompt, count, nil
}

// Generate asks the provider for questions. When the output cannot be parsed the result is
// still returned, carrying the raw text, together with ErrUnparseableQuestions.
func (g *QuestionGenerator) Generate(ctx context.Context, req *models.CreateInterviewRequest, requestID string) (*GeneratedQuestions, error) {
	startTime := time.Now()

	prompt, target, err := g.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	response, err := g.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		return nil, err
	}

	result := &GeneratedQuestions{
		RawResponse: response.Content,
		Metadata: models.QuestionMetadata{
			Model:               response.Metadata.Model,
			Provider:            response.Metadata.Provider,
			JobPosition:         req.JobPosition,
			DifficultyLevel:     req.DifficultyLevel,
			TargetQuestionCount: target,
		},
	}

	payload, tier, err := utils.ExtractPayload(response.Content, utils.PayloadArray)
	result.Metadata.ParseTier = string(tier)
	metrics.QuestionParseTier.WithLabelValues(string(tier)).Inc()
	if err != nil {
		g.logger.Warn("Question output could not be parsed",
			zap.String("request_id", requestID),
			zap.Int("response_length", len(response.Content)))
		result.Metadata.ProcessingTime = int(time.Since(startTime).Milliseconds())
		return result, ErrUnparseableQuestions
	}

	questions, err := decodeQuestions(payload)
	if err != nil {
		result.Metadata.ProcessingTime = int(time.Since(startTime).Milliseconds())
		return result, fmt.Errorf("%w: %v", ErrUnparseableQuestions, err)
	}
	result.Questions = questions
	result.Metadata.QuestionCount = len(questions)
	result.Metadata.ProcessingTime = int(time.Since(startTime).Milliseconds())

	if len(questions) != target {
		g.logger.Warn("Question count differs from target",
			zap.String("request_id", requestID),
			zap.Int("target", target),
			zap.Int("received", len(questions)))
	}
	if tier != utils.TierDirect {
		g.logger.Info("Question output parsed with fallback",
			zap.String("request_id", requestID),
			zap.String("tier", string(tier)))
	}

	return result, nil
}

// decodeQuestions fills in defaults for every missing or mistyped field, preserving order.
func decodeQuestions(payload json.RawMessage) ([]models.Question, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(items))
	for _, item := range items {
		var fields map[string]interface{}
		_ = json.Unmarshal(item, &fields) // non-object items fall through to all defaults

		questions = append(questions, models.Question{
			Question:     stringOr(fields["question"], missingQuestionText),
			Tests:        stringOr(fields["tests"], missingTests),
			SampleAnswer: stringOr(fields["sampleAnswer"], missingSampleAnswer),
			FollowUps:    stringList(fields["followUps"]),
		})
	}
	return questions, nil
}

func stringOr(value interface{}, fallback string) string {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func stringList(value interface{}) []string {
	out := []string{}
	list, ok := value.([]interface{})
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
