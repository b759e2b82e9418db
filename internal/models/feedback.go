package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Rating holds the four sub-scores, each on a 0-10 scale.
type Rating struct {
	TechnicalSkills int `json:"technicalSkills"`
	Communication   int `json:"communication"`
	ProblemSolving  int `json:"problemSolving"`
	Experience      int `json:"experience"`
}

// Review is the structured evaluation of a completed interview.
type Review struct {
	Rating            Rating `json:"rating"`
	Summary           string `json:"summary"`
	Recommendation    string `json:"recommendation"`
	RecommendationMsg string `json:"recommendationMsg"`
}

// PostInterview stores at most one review per interview.
type PostInterview struct {
	ID              uint                      `gorm:"primaryKey" json:"-"`
	InterviewID     string                    `gorm:"column:interview_id;uniqueIndex;not null" json:"interview_id"`
	InterviewReview datatypes.JSONType[Review] `gorm:"column:interview_review" json:"interview_review"`
	CreatedAt       time.Time                 `gorm:"column:created_at" json:"created_at"`
}

func (PostInterview) TableName() string {
	return "postinterview"
}

// Review returns the stored review.
func (p *PostInterview) Review() Review {
	return p.InterviewReview.Data()
}

// Normalize clamps ratings and canonicalizes the recommendation.
func (r Review) Normalize() Review {
	r.Rating = Rating{
		TechnicalSkills: clampScore(r.Rating.TechnicalSkills),
		Communication:   clampScore(r.Rating.Communication),
		ProblemSolving:  clampScore(r.Rating.ProblemSolving),
		Experience:      clampScore(r.Rating.Experience),
	}
	r.Recommendation = NormalizeRecommendation(r.Recommendation)
	r.Summary = strings.TrimSpace(r.Summary)
	r.RecommendationMsg = strings.TrimSpace(r.RecommendationMsg)
	return r
}

// NormalizeRecommendation maps free-form model output onto the known values.
// Anything unrecognized needs a human look.
func NormalizeRecommendation(value string) string {
	key := strings.ToLower(strings.Join(strings.Fields(value), " "))
	if rec, ok := validRecommendations[key]; ok {
		return rec
	}
	return RecommendationReviewRequired
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxRatingScore {
		return MaxRatingScore
	}
	return score
}

// IncompleteReview is stored when the call ended without any conversation.
func IncompleteReview() Review {
	return Review{
		Summary:           "The interview ended before any conversation was recorded.",
		Recommendation:    RecommendationIncomplete,
		RecommendationMsg: "No responses were captured, so the candidate could not be evaluated.",
	}
}

// ReviewRequiredReview is stored when automatic evaluation failed.
func ReviewRequiredReview() Review {
	return Review{
		Summary:           "Automatic evaluation could not be completed for this interview.",
		Recommendation:    RecommendationReviewRequired,
		RecommendationMsg: "The transcript was recorded but feedback generation failed; a manual review is required.",
	}
}
