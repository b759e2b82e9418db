package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type VapiConfig struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
	Model         string
	Voice         string
	Timeout       time.Duration
}

func NewVapiConfig() (*VapiConfig, error) {
	apiKey := os.Getenv("VAPI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("VAPI_API_KEY environment variable is required")
	}
	baseURL := os.Getenv("VAPI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.vapi.ai"
	}
	webhookSecret := os.Getenv("VAPI_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, errors.New("VAPI_WEBHOOK_SECRET environment variable is required")
	}
	model := os.Getenv("VAPI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &VapiConfig{
		APIKey:        apiKey,
		BaseURL:       baseURL,
		WebhookSecret: webhookSecret,
		Model:         model,
		Voice:         os.Getenv("VAPI_VOICE_ID"),
		Timeout:       15 * time.Second,
	}, nil
}

// VapiClient starts web calls on Vapi with an inline transient assistant.
type VapiClient struct {
	httpClient *http.Client
	config     *VapiConfig
}

func NewVapiClient(config *VapiConfig) *VapiClient {
	return &VapiClient{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

type vapiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type vapiVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type vapiAssistant struct {
	FirstMessage string `json:"firstMessage,omitempty"`
	Model        struct {
		Provider string        `json:"provider"`
		Model    string        `json:"model"`
		Messages []vapiMessage `json:"messages"`
	} `json:"model"`
	Voice              *vapiVoice        `json:"voice,omitempty"`
	MaxDurationSeconds int               `json:"maxDurationSeconds,omitempty"`
	ServerMessages     []string          `json:"serverMessages"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type vapiCallRequest struct {
	Assistant vapiAssistant `json:"assistant"`
}

type vapiCallResponse struct {
	ID         string `json:"id"`
	WebCallURL string `json:"webCallUrl"`
}

func (c *VapiClient) StartCall(ctx context.Context, req CallRequest) (*Call, error) {
	assistant := vapiAssistant{
		FirstMessage:       req.FirstMessage,
		MaxDurationSeconds: int(req.MaxDuration.Seconds()),
		ServerMessages:     []string{"transcript", "status-update", "end-of-call-report"},
		Metadata:           map[string]string{"interviewId": req.InterviewID},
	}
	assistant.Model.Provider = "openai"
	assistant.Model.Model = c.config.Model
	assistant.Model.Messages = []vapiMessage{{Role: "system", Content: req.SystemPrompt}}
	if c.config.Voice != "" {
		assistant.Voice = &vapiVoice{Provider: "vapi", VoiceID: c.config.Voice}
	}

	var resp vapiCallResponse
	if err := c.do(ctx, http.MethodPost, "/call/web", vapiCallRequest{Assistant: assistant}, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, errors.New("vapi: call response has no id")
	}
	return &Call{CallID: resp.ID, WebCallURL: resp.WebCallURL}, nil
}

func (c *VapiClient) EndCall(ctx context.Context, callID string) error {
	return c.do(ctx, http.MethodDelete, "/call/"+url.PathEscape(callID), nil, nil)
}

func (c *VapiClient) Name() string {
	return "vapi"
}

func (c *VapiClient) WebhookSecret() string {
	return c.config.WebhookSecret
}

func (c *VapiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("vapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vapi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("vapi: %s %s: http %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("vapi: decode response: %w", err)
		}
	}
	return nil
}
