package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/models"
)

const providerName = "gemini"

// Client wraps the genai SDK behind llm.Provider.
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	startTime := time.Now()
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return nil, classifyError(err)
	}

	if result == nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text, err := result.Text()
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return &models.GenerationResponse{
		Content: text,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          c.config.Model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func classifyError(err error) error {
	code := llm.ErrCodeServiceDown
	switch {
	case isRateLimitError(err):
		code = llm.ErrCodeRateLimit
	case errors.Is(err, context.DeadlineExceeded):
		code = llm.ErrCodeTimeout
	}
	return &llm.ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  "Failed to generate content",
		Err:      err,
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}
