package prompts

import "github.com/vansh1925/NexPrep-v2/internal/models"

type QuestionPromptData struct {
	QuestionCount     int
	JobPosition       string
	JobDescription    string
	ExperienceLevel   string
	InterviewDuration string
	DifficultyLevel   string
}

// Conversation is the serialized transcript, passed through verbatim.
type FeedbackPromptData struct {
	Conversation string
}

type InterviewerPromptData struct {
	CandidateName   string
	JobPosition     string
	ExperienceLevel string
	DifficultyLevel string
	InterviewTime   int
	Questions       []models.Question
}
