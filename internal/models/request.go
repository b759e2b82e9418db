package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
)

var durationDigits = regexp.MustCompile(`\d+`)

// DurationField accepts either "30 Min" or 30.
type DurationField string

func (d *DurationField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DurationField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = DurationField(n.String())
	return nil
}

var errNoDurationDigits = errors.New("no digits in duration")

// durationMinutes reads the first run of digits; a run too long for an int is an error.
func durationMinutes(value string) (int, error) {
	match := durationDigits.FindString(value)
	if match == "" {
		return 0, errNoDurationDigits
	}
	return strconv.Atoi(match)
}

// ParseDurationMinutes takes the first run of digits, clamped to the supported range.
// No digits means the default duration.
func ParseDurationMinutes(value string) int {
	minutes, err := durationMinutes(value)
	switch {
	case err == errNoDurationDigits:
		return DefaultDurationMinutes
	case err != nil, minutes > MaxDurationMinutes:
		return MaxDurationMinutes
	case minutes < MinDurationMinutes:
		return MinDurationMinutes
	}
	return minutes
}

type CreateInterviewRequest struct {
	JobPosition       string        `json:"jobPosition"`
	JobDescription    string        `json:"jobDescription"`
	ExperienceLevel   string        `json:"experienceLevel"`
	InterviewDuration DurationField `json:"interviewDuration"`
	DifficultyLevel   string        `json:"difficultyLevel"`
}

// DurationMinutes is only meaningful after Validate.
func (r *CreateInterviewRequest) DurationMinutes() int {
	return ParseDurationMinutes(string(r.InterviewDuration))
}

// implements the Validator interface; every failing field is reported
func (r *CreateInterviewRequest) Validate() error {
	fields := map[string]string{}

	r.JobPosition = strings.TrimSpace(r.JobPosition)
	if r.JobPosition == "" {
		fields["jobPosition"] = "Job position is required"
	}

	r.JobDescription = strings.TrimSpace(r.JobDescription)
	if r.JobDescription == "" {
		fields["jobDescription"] = "Job description is required"
	}

	r.ExperienceLevel = strings.ToLower(strings.TrimSpace(r.ExperienceLevel))
	if r.ExperienceLevel == "" {
		fields["experienceLevel"] = "Experience level is required"
	} else if _, ok := ExperienceLevelLabels[r.ExperienceLevel]; !ok {
		fields["experienceLevel"] = "Experience level must be one of: " + strings.Join(ExperienceLevelsList(), ", ")
	}

	duration := strings.TrimSpace(string(r.InterviewDuration))
	if duration == "" {
		fields["interviewDuration"] = "Interview duration is required"
	} else if minutes, err := durationMinutes(duration); err == errNoDurationDigits {
		fields["interviewDuration"] = "Interview duration must contain a number of minutes"
	} else if err != nil || minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		fields["interviewDuration"] = fmt.Sprintf("Interview duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes)
	}

	difficulty := strings.ToLower(strings.TrimSpace(r.DifficultyLevel))
	if difficulty == "" {
		fields["difficultyLevel"] = "Difficulty level is required"
	} else if canonical, ok := ValidDifficultyLevels[difficulty]; ok {
		r.DifficultyLevel = canonical
	} else {
		fields["difficultyLevel"] = "Difficulty level must be one of: " + strings.Join(DifficultyLevelsList(), ", ")
	}

	if len(fields) > 0 {
		return &ErrorResponse{
			Code:    "validation_error",
			Message: "One or more fields are invalid",
			Fields:  fields,
		}
	}
	return nil
}

// GenerateFeedbackRequest carries the conversation to evaluate.
// An empty conversation is valid: it produces an "Incomplete" review.
type GenerateFeedbackRequest struct {
	Conversation []TranscriptEntry `json:"conversation"`
}

func (r *GenerateFeedbackRequest) Validate() error {
	for i, entry := range r.Conversation {
		if strings.TrimSpace(entry.Role) == "" {
			return &ErrorResponse{
				Code:    "invalid_conversation",
				Message: "conversation entry " + strconv.Itoa(i) + " is missing a role",
			}
		}
	}
	return nil
}

// PreviewFeedbackRequest is the stateless evaluation request; conversation is required.
type PreviewFeedbackRequest struct {
	Conversation json.RawMessage `json:"conversation"`
}

func (r *PreviewFeedbackRequest) Validate() error {
	trimmed := strings.TrimSpace(string(r.Conversation))
	if trimmed == "" || trimmed == "null" || trimmed == `""` {
		return &ErrorResponse{
			Code:    "missing_conversation",
			Message: "Conversation data is required",
		}
	}
	return nil
}

type TranscriptEventRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r *TranscriptEventRequest) Validate() error {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		return &ErrorResponse{Code: "missing_role", Message: "Role field is required"}
	}
	if strings.TrimSpace(r.Content) == "" {
		return &ErrorResponse{Code: "missing_content", Message: "Content field is required"}
	}
	return nil
}

type EndSessionRequest struct {
	Confirm bool `json:"confirm"`
}

func (r *EndSessionRequest) Validate() error {
	return nil
}

// AddCreditsRequest is sent by the billing provider once a credit pack is paid for.
type AddCreditsRequest struct {
	Email   string `json:"email"`
	Credits int    `json:"credits"`
}

func (r *AddCreditsRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return &ErrorResponse{Code: "missing_email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return &ErrorResponse{Code: "invalid_email", Message: "Email is not a valid address"}
	}
	if !CreditPacks[r.Credits] {
		return &ErrorResponse{Code: "invalid_credits", Message: "Credits must be one of the packs: 5, 15, 30"}
	}
	return nil
}
