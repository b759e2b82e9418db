package models

// uniform error responses
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// generic ok/info envelope
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}

// GenerationResponse is the raw output of an LLM provider call.
type GenerationResponse struct {
	Content  string             `json:"content"`
	Metadata GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

type QuestionMetadata struct {
	Model               string `json:"model"`
	Provider            string `json:"provider"`
	JobPosition         string `json:"jobPosition"`
	DifficultyLevel     string `json:"difficultyLevel"`
	QuestionCount       int    `json:"questionCount"`
	TargetQuestionCount int    `json:"targetQuestionCount"`
	ParseTier           string `json:"parseTier"`
	ProcessingTime      int    `json:"processing_time_ms"`
}

// CreateInterviewResponse mirrors the question-generation contract plus the stored record.
type CreateInterviewResponse struct {
	Success          bool             `json:"success"`
	Questions        []Question       `json:"questions"`
	RawResponse      string           `json:"rawResponse"`
	Metadata         QuestionMetadata `json:"metadata"`
	InterviewID      string           `json:"interviewId,omitempty"`
	CreditsRemaining *int             `json:"creditsRemaining,omitempty"`
	Saved            bool             `json:"saved"`
	Warning          string           `json:"warning,omitempty"`
}

type FailureResponse struct {
	Success     bool   `json:"success"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error"`
	Action      string `json:"action,omitempty"`
	RawResponse string `json:"rawResponse,omitempty"`
}

type FeedbackResponse struct {
	InterviewID string `json:"interview_id"`
	Feedback    Review `json:"feedback"`
	Outcome     string `json:"outcome"`
	RawResponse string `json:"rawResponse,omitempty"`
}

type SessionResponse struct {
	InterviewID     string       `json:"interview_id"`
	CallID          string       `json:"call_id,omitempty"`
	State           SessionState `json:"state"`
	TranscriptCount int          `json:"transcript_count"`
	SystemPrompt    string       `json:"system_prompt,omitempty"`
	WebCallURL      string       `json:"web_call_url,omitempty"`
}
