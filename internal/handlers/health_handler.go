package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/config"
	"github.com/vansh1925/NexPrep-v2/internal/llm"
	"github.com/vansh1925/NexPrep-v2/internal/prompts"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

const serviceName = "nexprep"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

type HealthHandler struct {
	provider      llm.Provider
	promptManager prompts.PromptProvider
	config        *config.Config
	db            Pinger
}

func NewHealthHandler(provider llm.Provider, promptManager prompts.PromptProvider, cfg *config.Config, db Pinger) *HealthHandler {
	return &HealthHandler{
		provider:      provider,
		promptManager: promptManager,
		config:        cfg,
		db:            db,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
		"version": "1.0.0",
	})
}

// ReadyzHandler reports 503 when any dependency check fails.
func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	response := ReadinessResponse{
		Status:  "ready",
		Service: serviceName,
		Checks: map[string]ReadinessCheck{
			"provider":       handler.checkProvider(),
			"prompt_manager": handler.checkPrompts(),
			"database":       handler.checkDatabase(request.Context()),
			"configuration":  handler.checkConfig(),
		},
	}

	status := http.StatusOK
	for _, check := range response.Checks {
		if check.Status != "ok" {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}
	utils.JSON(writer, status, response)
}

func passed() ReadinessCheck { return ReadinessCheck{Status: "ok"} }

func failed(message string) ReadinessCheck {
	return ReadinessCheck{Status: "failed", Message: message}
}

func (handler *HealthHandler) checkProvider() ReadinessCheck {
	if handler.provider == nil {
		return failed("AI provider not initialized")
	}
	return passed()
}

func (handler *HealthHandler) checkPrompts() ReadinessCheck {
	if handler.promptManager == nil {
		return failed("Prompt manager not initialized")
	}
	if len(handler.promptManager.GetTemplates()) == 0 {
		return failed("No prompt templates loaded")
	}
	return passed()
}

func (handler *HealthHandler) checkDatabase(ctx context.Context) ReadinessCheck {
	if handler.db == nil {
		return failed("Database not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := handler.db.PingContext(ctx); err != nil {
		return failed(err.Error())
	}
	return passed()
}

func (handler *HealthHandler) checkConfig() ReadinessCheck {
	if handler.config == nil {
		return failed("Configuration not loaded")
	}
	return passed()
}
