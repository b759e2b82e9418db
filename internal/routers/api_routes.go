package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vansh1925/NexPrep-v2/internal/handlers"
	"github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
)

// APIHandlers groups the handlers mounted under /api/v1.
type APIHandlers struct {
	Users      *handlers.UserHandler
	Interviews *handlers.InterviewHandler
	Feedback   *handlers.FeedbackHandler
	Sessions   *handlers.SessionHandler
}

// APIRoutes mounts the versioned API. Everything except the voice and billing webhooks
// requires auth; the webhooks are authenticated by their shared secrets instead.
func APIRoutes(router *chi.Mux, h APIHandlers, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/voice/webhook", h.Sessions.WebhookHandler)
		r.With(h.Users.RequireBillingSecret, middleware.ValidateRequest[*models.AddCreditsRequest]()).
			Post("/billing/credits", h.Users.AddCreditsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", h.Users.MeHandler)
			})

			r.Route("/interviews", func(r chi.Router) {
				r.Get("/", h.Interviews.ListHandler)
				r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/", h.Interviews.CreateHandler)
				r.Route("/{interview_id}", func(r chi.Router) {
					r.Get("/", h.Interviews.GetHandler)
					r.Delete("/", h.Interviews.DeleteHandler)
					r.Get("/feedback", h.Feedback.GetHandler)
					r.With(middleware.ValidateRequest[*models.GenerateFeedbackRequest]()).Post("/feedback", h.Feedback.GenerateHandler)
				})
			})

			r.With(middleware.ValidateRequest[*models.PreviewFeedbackRequest]()).Post("/ai/feedback", h.Feedback.PreviewHandler)

			r.Route("/sessions/{interview_id}", func(r chi.Router) {
				r.Get("/", h.Sessions.GetHandler)
				r.Post("/start", h.Sessions.StartHandler)
				r.With(middleware.ValidateRequest[*models.TranscriptEventRequest]()).Post("/transcript", h.Sessions.TranscriptHandler)
				r.With(middleware.ValidateRequest[*models.EndSessionRequest]()).Post("/end", h.Sessions.EndHandler)
				r.Get("/stream", h.Sessions.StreamHandler)
			})
		})
	})
}
