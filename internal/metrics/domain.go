package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interviews_created_total",
		Help:      "Interviews generated and persisted",
	})

	CreditsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credits_consumed_total",
		Help:      "Interview credits consumed",
	})

	QuestionParseTier = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "question_parse_tier_total",
		Help:      "Question generation responses by the extraction tier that parsed them",
	}, []string{"tier"})

	FeedbackGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_generated_total",
		Help:      "Feedback generation results by outcome",
	}, []string{"outcome"})

	VoiceSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "voice_sessions_active",
		Help:      "Voice sessions currently in the call-started state",
	})
)
