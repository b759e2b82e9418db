package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vansh1925/NexPrep-v2/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate returns the existing row for email, or inserts one with the starting balance.
// Concurrent first sign-ins converge on the same row through the unique email index.
func (r *UserRepository) GetOrCreate(ctx context.Context, email, name, pfp string, startingCredits int) (*models.User, bool, error) {
	user := &models.User{Email: email, Name: name, Pfp: pfp, Credits: startingCredits}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return user, true, nil
	}

	existing, err := r.GetByEmail(ctx, email)
	return existing, false, err
}

func (r *UserRepository) AddCredits(ctx context.Context, email string, amount int) (*models.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"credits":    gorm.Expr("credits + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByEmail(ctx, email)
}

// ConsumeCredit takes one credit and returns the new balance.
func (r *UserRepository) ConsumeCredit(ctx context.Context, email string) (int, error) {
	var remaining int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = consumeCredit(tx, email)
		return err
	})
	return remaining, err
}

// conditional decrement; the balance can never go below zero
func consumeCredit(tx *gorm.DB, email string) (int, error) {
	res := tx.Model(&models.User{}).
		Where("email = ? AND credits > 0", email).
		Updates(map[string]interface{}{
			"credits":    gorm.Expr("credits - 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}

	var user models.User
	if err := tx.Select("credits").First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if res.RowsAffected == 0 {
		return user.Credits, ErrInsufficientCredits
	}
	return user.Credits, nil
}
