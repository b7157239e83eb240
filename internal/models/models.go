package models

import (
	"time"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
)

// Account is a portfolio site account. AccessToken is the exact signed token
// last issued to the account; it is empty while logged out and every bearer
// check compares against it byte for byte.
type Account struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"unique;not null"          json:"username"`
	Email        string     `gorm:"unique;not null"          json:"email"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	Role         authz.Role `gorm:"not null"                 json:"role"`
	AccessToken  string     `json:"-"`

	RefreshToken        *RefreshToken        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ForgotPasswordToken *ForgotPasswordToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// RefreshToken is the single long-lived session secret of an account. It is
// replaced wholesale (new id, new value) on every login and refresh, never
// mutated in place.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey"           json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	AccountID uint      `gorm:"uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `gorm:"not null"             json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ForgotPasswordToken authorizes a single password reset. Created unvalidated,
// flipped to validated by the confirmation step, consumed implicitly by the
// reset that follows.
type ForgotPasswordToken struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token       string    `gorm:"not null"                 json:"-"`
	AccountID   uint      `gorm:"uniqueIndex;not null"     json:"account_id"`
	IsValidated bool      `gorm:"default:false"            json:"is_validated"`
	CreatedAt   time.Time `gorm:"not null"                 json:"created_at"`
	ExpiresAt   time.Time `gorm:"not null"                 json:"expires_at"`
}

func (t *ForgotPasswordToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Contact is a message left by a site visitor.
type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Email     string    `gorm:"index;not null"           json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `gorm:"not null"                 json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
