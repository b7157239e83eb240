package store

import (
	"context"
	"errors"

	"github.com/pavelkurin/portfolio_backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

// CredentialStore is the persistence surface the session and recovery
// managers work against. Two implementations exist: the gorm-backed store in
// this package (postgres in production, in-memory sqlite for the dev profile
// and tests). Business logic never branches on which one it got.
type CredentialStore interface {
	GetAccount(ctx context.Context, id uint) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	// FindByIdentifier scans for accounts whose email or username matches.
	FindByIdentifier(ctx context.Context, identifier string) ([]models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	EmailTaken(ctx context.Context, email string) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)

	CreateAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id uint) error

	// SaveSession atomically stores a freshly issued access token and replaces
	// the account's refresh token row wholesale.
	SaveSession(ctx context.Context, accountID uint, accessToken string, rt *models.RefreshToken) error
	// ClearSession empties the access token and removes the refresh token row.
	ClearSession(ctx context.Context, accountID uint) error

	// SaveResetToken replaces the account's forgot-password token wholesale.
	SaveResetToken(ctx context.Context, accountID uint, t *models.ForgotPasswordToken) error
	MarkResetValidated(ctx context.Context, accountID uint) error

	// SetAccessToken overwrites only the stored access token string.
	SetAccessToken(ctx context.Context, accountID uint, token string) error
	// UpdatePassword stores a new digest and tears down the session (access
	// token and refresh row), forcing a full re-login.
	UpdatePassword(ctx context.Context, accountID uint, digest string) error
}
