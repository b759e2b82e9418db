package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
)

type contextKey string

const validatedRequestKey contextKey = "validated_request"

const maxBodyBytes = 1 << 20

// Validator is implemented by every request model bound through ValidateRequest.
type Validator interface {
	Validate() error
}

// ValidateRequest decodes the JSON body into a fresh T, runs its Validate method and
// stores the result in the request context for GetValidatedRequest.
// An empty body decodes as {} so that requests with only optional fields still validate.
func ValidateRequest[T Validator]() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := newRequest[T]()

			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil && !errors.Is(err, io.EOF) {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					utils.JSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Code:    "body_too_large",
						Message: "Request body exceeds 1MB",
					})
					return
				}
				utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
					Code:    "invalid_json",
					Message: "Invalid JSON in request body",
				})
				return
			}

			if err := req.Validate(); err != nil {
				utils.JSON(w, http.StatusBadRequest, asErrorResponse(err))
				return
			}

			next.ServeHTTP(w, WithValidatedRequest(r, req))
		})
	}
}

// newRequest allocates the value T points at, so pointer receivers can be decoded into.
func newRequest[T Validator]() T {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface().(T)
	}
	return reflect.New(t).Interface().(T)
}

// asErrorResponse keeps per-field messages when the model already returned an ErrorResponse.
func asErrorResponse(err error) models.ErrorResponse {
	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		return *errResp
	}
	return models.ErrorResponse{Code: "validation_error", Message: err.Error()}
}

// GetValidatedRequest panics when the route was not wrapped in ValidateRequest[T].
func GetValidatedRequest[T any](r *http.Request) T {
	return r.Context().Value(validatedRequestKey).(T)
}

func WithValidatedRequest[T any](r *http.Request, req T) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), validatedRequestKey, req))
}
