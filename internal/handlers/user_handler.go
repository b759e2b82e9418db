package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

type UserStore interface {
	GetOrCreate(ctx context.Context, email, name, pfp string, startingCredits int) (*models.User, bool, error)
	AddCredits(ctx context.Context, email string, amount int) (*models.User, error)
}

type UserResponse struct {
	User    *models.User `json:"user"`
	Created bool         `json:"created"`
}

// BillingSecretHeader carries the shared secret of the billing webhook.
const BillingSecretHeader = "X-Billing-Secret"

type UserHandler struct {
	users          UserStore
	defaultCredits int
	billingSecret  string
	logger         *zap.Logger
}

// NewUserHandler takes the billing webhook secret; an empty secret disables crediting.
func NewUserHandler(users UserStore, defaultCredits int, billingSecret string, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:          users,
		defaultCredits: defaultCredits,
		billingSecret:  billingSecret,
		logger:         logger,
	}
}

// MeHandler creates the user row on first sign-in with the starting credit balance.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, created, err := h.users.GetOrCreate(r.Context(), id.Email, displayName(id), id.Picture, h.defaultCredits)
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err), zap.String("user_email", id.Email))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to load user")
		return
	}
	if created {
		h.logger.Info("User created", zap.String("user_email", id.Email), zap.Int("credits", user.Credits))
	}
	utils.JSON(w, http.StatusOK, UserResponse{User: user, Created: created})
}

// RequireBillingSecret rejects requests that do not carry the billing webhook secret.
func (h *UserHandler) RequireBillingSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(BillingSecretHeader)
		if h.billingSecret == "" || subtle.ConstantTimeCompare([]byte(h.billingSecret), []byte(got)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid_secret", "Billing secret mismatch")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddCreditsHandler credits a paid pack to a user. Only the billing provider calls it.
func (h *UserHandler) AddCreditsHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.AddCreditsRequest](r)

	user, err := h.users.AddCredits(r.Context(), req.Email, req.Credits)
	if errors.Is(err, repositories.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to add credits", zap.Error(err), zap.String("user_email", req.Email))
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to add credits")
		return
	}

	h.logger.Info("Credits added",
		zap.String("user_email", req.Email),
		zap.Int("added", req.Credits),
		zap.Int("balance", user.Credits))
	utils.JSON(w, http.StatusOK, UserResponse{User: user})
}
