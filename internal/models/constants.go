package models

// valid experience levels (in lowercase) and their prompt labels
var ExperienceLevelLabels = map[string]string{
	"entry":  "Entry Level (0-2 years)",
	"mid":    "Mid Level (2-5 years)",
	"senior": "Senior Level (5-8 years)",
	"expert": "Expert Level (8+ years)",
}

// valid difficulty levels, keyed by lowercase
var ValidDifficultyLevels = map[string]string{
	"easy":   "Easy",
	"medium": "Medium",
	"hard":   "Hard",
}

func ExperienceLevelsList() []string {
	return []string{"entry", "mid", "senior", "expert"}
}

func DifficultyLevelsList() []string {
	return []string{"Easy", "Medium", "Hard"}
}

// ExperienceLevelLabel falls back to the raw level for unknown values.
func ExperienceLevelLabel(level string) string {
	if label, ok := ExperienceLevelLabels[level]; ok {
		return label
	}
	return level
}

const (
	DefaultDurationMinutes = 30
	MinDurationMinutes     = 1
	MaxDurationMinutes     = 180
	MinQuestionCount       = 5
	MinutesPerQuestion     = 5
	MaxRatingScore         = 10
)

// CreditPacks are the purchasable credit bundles.
var CreditPacks = map[int]bool{5: true, 15: true, 30: true}

// Recommendation values stored on a feedback record.
const (
	RecommendationHire           = "Hire"
	RecommendationReject         = "Reject"
	RecommendationMaybe          = "Maybe"
	RecommendationConsider       = "Consider"
	RecommendationIncomplete     = "Incomplete"
	RecommendationReviewRequired = "Review Required"
)

var validRecommendations = map[string]string{
	"hire":            RecommendationHire,
	"reject":          RecommendationReject,
	"maybe":           RecommendationMaybe,
	"consider":        RecommendationConsider,
	"incomplete":      RecommendationIncomplete,
	"review required": RecommendationReviewRequired,
}

// Interview status as shown in listings.
const (
	InterviewStatusPending   = "pending"
	InterviewStatusCompleted = "completed"
)
