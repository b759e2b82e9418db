package models

import (
	"time"
)

// User is created on first sign-in and keyed by e-mail.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"column:Name" json:"name"`
	Pfp       string    `gorm:"column:pfp" json:"pfp,omitempty"`
	Credits   int       `gorm:"not null;default:0" json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "Users"
}
