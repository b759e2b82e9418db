package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/models"
)

const providerName = "openai"

// Client talks to any OpenAI-compatible /chat/completions endpoint.
type Client struct {
	httpClient *http.Client
	config     *Config
}

func NewClient(config *Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "missing OpenAI API key",
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
}

func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	startTime := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a careful assistant. Output exactly what the user asks for."},
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeInvalidInput, Message: "failed to marshal request", Err: err}
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeInvalidInput, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := llm.ErrCodeServiceDown
		if errors.Is(err, context.DeadlineExceeded) {
			code = llm.ErrCodeTimeout
		}
		return nil, &llm.ProviderError{Provider: providerName, Code: code, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeServiceDown, Message: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     codeForStatus(resp.StatusCode),
			Message:  fmt.Sprintf("http %d", resp.StatusCode),
			Err:      errors.New(strings.TrimSpace(string(raw))),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeInvalidInput, Message: "failed to decode response", Err: err}
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, &llm.ProviderError{Provider: providerName, Code: llm.ErrCodeInvalidInput, Message: "Empty response generated"}
	}

	model := decoded.Model
	if model == "" {
		model = c.config.Model
	}

	return &models.GenerationResponse{
		Content: decoded.Choices[0].Message.Content,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          model,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return llm.ErrCodeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.ErrCodeAPIKey
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return llm.ErrCodeTimeout
	case status >= 500:
		return llm.ErrCodeServiceDown
	default:
		return llm.ErrCodeInvalidInput
	}
}
