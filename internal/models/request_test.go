package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func expectErrCode(t *testing.T, err error, code string) *ErrorResponse {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code %s but got nil", code)
	}
	resp, ok := err.(*ErrorResponse)
	if !ok {
		t.Fatalf("expected ErrorResponse, got %T", err)
	}
	if resp.Code != code {
		t.Fatalf("expected error code %s, got %s", code, resp.Code)
	}
	return resp
}

func validCreateRequest() *CreateInterviewRequest {
	return &CreateInterviewRequest{
		JobPosition:       "Backend Engineer",
		JobDescription:    "Builds Go services",
		ExperienceLevel:   "mid",
		InterviewDuration: "30 Min",
		DifficultyLevel:   "Medium",
	}
}

func TestErrorResponse_Error(t *testing.T) {
	err := &ErrorResponse{Message: "failed"}
	if err.Error() != "failed" {
		t.Fatalf("expected message to be returned, got %s", err.Error())
	}
}

func TestSupportedLists(t *testing.T) {
	if got := strings.Join(ExperienceLevelsList(), ","); got != "entry,mid,senior,expert" {
		t.Fatalf("unexpected experience levels: %s", got)
	}
	if got := strings.Join(DifficultyLevelsList(), ","); got != "Easy,Medium,Hard" {
		t.Fatalf("unexpected difficulty levels: %s", got)
	}
	if got := ExperienceLevelLabel("senior"); got != "Senior Level (5-8 years)" {
		t.Fatalf("unexpected label: %s", got)
	}
	if got := ExperienceLevelLabel("principal"); got != "principal" {
		t.Fatalf("expected unknown level to pass through, got %s", got)
	}
}

func TestCreateInterviewRequestValidate(t *testing.T) {
	t.Run("valid request is normalized", func(t *testing.T) {
		req := validCreateRequest()
		req.ExperienceLevel = " Senior "
		req.DifficultyLevel = "hard"
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.ExperienceLevel != "senior" || req.DifficultyLevel != "Hard" {
			t.Fatalf("expected normalized fields, got %q / %q", req.ExperienceLevel, req.DifficultyLevel)
		}
		if req.DurationMinutes() != 30 {
			t.Fatalf("expected 30 minutes, got %d", req.DurationMinutes())
		}
	})

	t.Run("every missing field is reported", func(t *testing.T) {
		req := &CreateInterviewRequest{JobPosition: "   "}
		resp := expectErrCode(t, req.Validate(), "validation_error")
		for _, field := range []string{"jobPosition", "jobDescription", "experienceLevel", "interviewDuration", "difficultyLevel"} {
			if _, ok := resp.Fields[field]; !ok {
				t.Fatalf("expected %s to be reported, got %+v", field, resp.Fields)
			}
		}
	})

	t.Run("invalid enums", func(t *testing.T) {
		req := validCreateRequest()
		req.ExperienceLevel = "principal"
		req.DifficultyLevel = "Impossible"
		resp := expectErrCode(t, req.Validate(), "validation_error")
		if len(resp.Fields) != 2 {
			t.Fatalf("expected two field errors, got %+v", resp.Fields)
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		req := validCreateRequest()
		req.InterviewDuration = "0 Min"
		resp := expectErrCode(t, req.Validate(), "validation_error")
		if _, ok := resp.Fields["interviewDuration"]; !ok {
			t.Fatalf("expected duration error, got %+v", resp.Fields)
		}
	})
}

func TestCreateInterviewRequestDurationBounds(t *testing.T) {
	for _, duration := range []string{"1000000000 Min", "99999999999999999999 Min", "181 Min", "0 Min"} {
		req := validCreateRequest()
		req.InterviewDuration = DurationField(duration)
		resp := expectErrCode(t, req.Validate(), "validation_error")
		if _, ok := resp.Fields["interviewDuration"]; !ok {
			t.Fatalf("expected duration error for %q, got %+v", duration, resp.Fields)
		}
	}

	for _, duration := range []string{"1 Min", "180 Min"} {
		req := validCreateRequest()
		req.InterviewDuration = DurationField(duration)
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error for %q: %v", duration, err)
		}
	}
}

func TestDurationFieldAcceptsNumbers(t *testing.T) {
	var req CreateInterviewRequest
	if err := json.Unmarshal([]byte(`{"interviewDuration": 45}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if req.DurationMinutes() != 45 {
		t.Fatalf("expected 45, got %d", req.DurationMinutes())
	}

	if err := json.Unmarshal([]byte(`{"interviewDuration": "60 Min"}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if req.DurationMinutes() != 60 {
		t.Fatalf("expected 60, got %d", req.DurationMinutes())
	}
}

func TestParseDurationMinutes(t *testing.T) {
	cases := map[string]int{
		"5 Min":   5,
		"15 Min":  15,
		"1 hour":  1,
		"":        DefaultDurationMinutes,
		"forever": DefaultDurationMinutes,
		"0 Min":   MinDurationMinutes,
		"999 Min": MaxDurationMinutes,

		"99999999999999999999 Min": MaxDurationMinutes,
	}
	for input, want := range cases {
		if got := ParseDurationMinutes(input); got != want {
			t.Fatalf("ParseDurationMinutes(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestTranscriptEventRequestValidate(t *testing.T) {
	expectErrCode(t, (&TranscriptEventRequest{Content: "hi"}).Validate(), "missing_role")
	expectErrCode(t, (&TranscriptEventRequest{Role: "user", Content: "  "}).Validate(), "missing_content")

	req := &TranscriptEventRequest{Role: " User ", Content: "hello"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Role != "user" {
		t.Fatalf("expected role to be normalized, got %s", req.Role)
	}
}

func TestPreviewFeedbackRequestValidate(t *testing.T) {
	for _, body := range []string{`{}`, `{"conversation":null}`, `{"conversation":""}`} {
		var req PreviewFeedbackRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		expectErrCode(t, req.Validate(), "missing_conversation")
	}

	var req PreviewFeedbackRequest
	if err := json.Unmarshal([]byte(`{"conversation":[{"role":"user","content":"hi"}]}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddCreditsRequestValidate(t *testing.T) {
	expectErrCode(t, (&AddCreditsRequest{Credits: 5}).Validate(), "missing_email")
	expectErrCode(t, (&AddCreditsRequest{Email: "not-an-email", Credits: 5}).Validate(), "invalid_email")
	for _, credits := range []int{0, -5, 1, 7, 1000000} {
		expectErrCode(t, (&AddCreditsRequest{Email: "jane@example.com", Credits: credits}).Validate(), "invalid_credits")
	}
	for _, credits := range []int{5, 15, 30} {
		req := &AddCreditsRequest{Email: " jane@example.com ", Credits: credits}
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error for pack %d: %v", credits, err)
		}
		if req.Email != "jane@example.com" {
			t.Fatalf("expected trimmed email, got %q", req.Email)
		}
	}
}

func TestReviewNormalize(t *testing.T) {
	review := Review{
		Rating:         Rating{TechnicalSkills: 14, Communication: -2, ProblemSolving: 7, Experience: 10},
		Summary:        "  solid  ",
		Recommendation: "  hire ",
	}.Normalize()

	if review.Rating.TechnicalSkills != 10 || review.Rating.Communication != 0 || review.Rating.ProblemSolving != 7 {
		t.Fatalf("expected clamped ratings, got %+v", review.Rating)
	}
	if review.Recommendation != RecommendationHire || review.Summary != "solid" {
		t.Fatalf("unexpected normalized review: %+v", review)
	}
}

func TestNormalizeRecommendation(t *testing.T) {
	cases := map[string]string{
		"Reject":           RecommendationReject,
		"MAYBE":            RecommendationMaybe,
		"review  required": RecommendationReviewRequired,
		"Strong hire!":     RecommendationReviewRequired,
		"":                 RecommendationReviewRequired,
	}
	for input, want := range cases {
		if got := NormalizeRecommendation(input); got != want {
			t.Fatalf("NormalizeRecommendation(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestHasContent(t *testing.T) {
	if HasContent(nil) {
		t.Fatal("expected nil transcript to have no content")
	}
	if HasContent([]TranscriptEntry{{Role: "user", Content: "   "}}) {
		t.Fatal("expected blank entries to have no content")
	}
	if !HasContent([]TranscriptEntry{{Role: "assistant", Content: "Welcome"}}) {
		t.Fatal("expected content to be detected")
	}
}
