package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFeedbackNotFound = errors.New("feedback not found")

type FeedbackRepository struct {
	DB *gorm.DB
}

// Insert stores the review unless the interview already has one. The returned row is
// whichever review is stored; created reports whether it is the one just passed in.
func (r *FeedbackRepository) Insert(ctx context.Context, interviewID string, review models.Review) (*models.PostInterview, bool, error) {
	row := &models.PostInterview{
		InterviewID:     interviewID,
		InterviewReview: datatypes.NewJSONType(review),
		CreatedAt:       time.Now(),
	}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "interview_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return row, true, nil
	}

	existing, err := r.GetByInterviewID(ctx, interviewID)
	return existing, false, err
}

func (r *FeedbackRepository) GetByInterviewID(ctx context.Context, interviewID string) (*models.PostInterview, error) {
	var row models.PostInterview
	err := r.DB.WithContext(ctx).First(&row, "interview_id = ?", interviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeedbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
