package interview

import (
	"context"

	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
)

var (
	ErrInsufficientCredits = repositories.ErrInsufficientCredits
	ErrUserNotFound        = repositories.ErrUserNotFound
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// CreditGate is the read-only pre-check run before any AI call. The authoritative
// decrement happens at save time, inside the insert transaction.
type CreditGate struct {
	users UserStore
}

func NewCreditGate(users UserStore) *CreditGate {
	return &CreditGate{users: users}
}

// Check returns the current balance, or ErrInsufficientCredits when it is zero or less.
func (g *CreditGate) Check(ctx context.Context, email string) (int, error) {
	user, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user.Credits <= 0 {
		return user.Credits, ErrInsufficientCredits
	}
	return user.Credits, nil
}
