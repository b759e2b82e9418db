package handlers

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

func generateRequestID() string {
	return uuid.New().String()
}

// ensureRequestID generates a request ID if one is not provided
func ensureRequestID(requestID string) string {
	if requestID == "" {
		return generateRequestID()
	}
	return requestID
}

// requestID prefers the id assigned by chi's RequestID middleware
func requestID(r *http.Request) string {
	return ensureRequestID(chimw.GetReqID(r.Context()))
}

// identity is set by RequireAuth; a nil identity means the route was mounted without it
func identity(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
			Code:    "unauthorized",
			Message: "Authentication required",
		})
		return nil, false
	}
	return id, true
}

// displayName falls back to the e-mail local part when the identity provider sent no name
func displayName(id *middleware.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return utils.EmailLocalPart(id.Email)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	utils.JSON(w, status, models.ErrorResponse{Code: code, Message: message})
}
