package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is one generated interview question. Order within an interview is meaningful.
type Question struct {
	Question     string   `json:"question"`
	Tests        string   `json:"tests"`
	SampleAnswer string   `json:"sampleAnswer"`
	FollowUps    []string `json:"followUps"`
}

// InterviewDetails is the persisted configuration and question set for one interview attempt.
type InterviewDetails struct {
	ID                 uint                          `gorm:"primaryKey" json:"-"`
	InterviewID        string                        `gorm:"column:interview_id;uniqueIndex;not null" json:"interview_id"`
	UserEmail          string                        `gorm:"column:user_email;index;not null" json:"user_email"`
	JobPosition        string                        `gorm:"column:job_position;not null" json:"job_position"`
	JobDescription     string                        `gorm:"column:job_description;type:text" json:"job_description"`
	ExperienceLevel    string                        `gorm:"column:experience_level" json:"experience_level"`
	DifficultyLevel    string                        `gorm:"column:difficulty_level" json:"difficulty_level"`
	InterviewTime      int                           `gorm:"column:interview_time" json:"interview_time"`
	InterviewQuestions datatypes.JSONType[[]Question] `gorm:"column:interview_questions" json:"interview_questions"`
	CreatedAt          time.Time                     `gorm:"column:created_at;index" json:"created_at"`
}

func (InterviewDetails) TableName() string {
	return "InterviewDetails"
}

// Questions returns the stored question list.
func (d *InterviewDetails) Questions() []Question {
	return d.InterviewQuestions.Data()
}

// InterviewSummary is an interview row joined with its feedback for listings.
type InterviewSummary struct {
	InterviewDetails
	Status   string  `json:"status"`
	Feedback *Review `json:"feedback"`
}
