package repositories

import (
	"context"
	"errors"

	"github.com/vansh1925/NexPrep-v2/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrNotOwner          = errors.New("interview belongs to another user")
)

type InterviewRepository struct {
	DB *gorm.DB
}

func (r *InterviewRepository) Create(ctx context.Context, interview *models.InterviewDetails) error {
	return r.DB.WithContext(ctx).Create(interview).Error
}

// CreateWithCredit inserts the interview and takes one credit from its owner in a single
// transaction. Either both happen or neither does.
func (r *InterviewRepository) CreateWithCredit(ctx context.Context, interview *models.InterviewDetails) (int, error) {
	var remaining int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if remaining, err = consumeCredit(tx, interview.UserEmail); err != nil {
			return err
		}
		return tx.Create(interview).Error
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *InterviewRepository) GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewDetails, error) {
	var interview models.InterviewDetails
	err := r.DB.WithContext(ctx).First(&interview, "interview_id = ?", interviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

// ListByUser returns the user's interviews newest first, each marked completed when feedback exists.
func (r *InterviewRepository) ListByUser(ctx context.Context, email string) ([]models.InterviewSummary, error) {
	var interviews []models.InterviewDetails
	if err := r.DB.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").Order("id DESC").
		Find(&interviews).Error; err != nil {
		return nil, err
	}
	if len(interviews) == 0 {
		return []models.InterviewSummary{}, nil
	}

	ids := make([]string, len(interviews))
	for i, interview := range interviews {
		ids[i] = interview.InterviewID
	}

	var reviews []models.PostInterview
	if err := r.DB.WithContext(ctx).Where("interview_id IN ?", ids).Find(&reviews).Error; err != nil {
		return nil, err
	}
	byInterview := make(map[string]models.Review, len(reviews))
	for i := range reviews {
		byInterview[reviews[i].InterviewID] = reviews[i].Review()
	}

	summaries := make([]models.InterviewSummary, len(interviews))
	for i, interview := range interviews {
		summaries[i] = models.InterviewSummary{InterviewDetails: interview, Status: models.InterviewStatusPending}
		if review, ok := byInterview[interview.InterviewID]; ok {
			summaries[i].Status = models.InterviewStatusCompleted
			summaries[i].Feedback = &review
		}
	}
	return summaries, nil
}

// DeleteForOwner removes the interview and its feedback row.
func (r *InterviewRepository) DeleteForOwner(ctx context.Context, interviewID, email string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var interview models.InterviewDetails
		if err := tx.First(&interview, "interview_id = ?", interviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInterviewNotFound
			}
			return err
		}
		if interview.UserEmail != email {
			return ErrNotOwner
		}
		if err := tx.Where("interview_id = ?", interviewID).Delete(&models.PostInterview{}).Error; err != nil {
			return err
		}
		return tx.Delete(&interview).Error
	})
}
