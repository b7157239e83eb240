package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/hash"
	"github.com/pavelkurin/portfolio_backend/internal/mail"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/store"
	"github.com/pavelkurin/portfolio_backend/internal/tokens"
)

type captureMailer struct {
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newRecoveryService(t *testing.T) (*RecoveryService, *store.GormStore, *captureMailer) {
	t.Helper()
	db, err := store.OpenSQLiteMemory()
	require.NoError(t, err)
	st := store.NewGormStore(db)
	mailer := &captureMailer{}
	svc := &RecoveryService{
		Store:      st,
		Signer:     tokens.NewSigner([]byte("test-secret")),
		Hasher:     hash.Bcrypt{},
		Mailer:     mailer,
		BaseURL:    "https://portfolio.test",
		ResetTTL:   30 * time.Minute,
		ConfirmTTL: 10 * time.Minute,
	}
	return svc, st, mailer
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	svc, st, mailer := newRecoveryService(t)
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	require.NoError(t, svc.ForgotPassword(ctx, "user1@test.test"))

	stored, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	fpt := stored.ForgotPasswordToken
	require.NotNil(t, fpt)
	require.False(t, fpt.IsValidated)
	require.NotEmpty(t, fpt.Token)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "user1@test.test", mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].Body, "resetPasswordConfirmation?token=")
}

func TestForgotPasswordResolvesUsernameFirst(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	ctx := context.Background()

	// one account whose username collides with another account's email
	collider := seedUser(t, st, "user1@test.test", "collider@test.test", authz.RoleUser)
	other := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	require.NoError(t, svc.ForgotPassword(ctx, "user1@test.test"))

	stored, err := st.GetAccount(ctx, collider.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ForgotPasswordToken)

	stored, err = st.GetAccount(ctx, other.ID)
	require.NoError(t, err)
	require.Nil(t, stored.ForgotPasswordToken)
}

func TestForgotPasswordUnknownIdentifier(t *testing.T) {
	svc, _, mailer := newRecoveryService(t)

	err := svc.ForgotPassword(context.Background(), "ghost@test.test")
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Empty(t, mailer.sent)
}

func TestConfirmResetHappyPath(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	require.NoError(t, svc.ForgotPassword(ctx, "user1"))
	stored, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	token := stored.ForgotPasswordToken.Token

	access, err := svc.ConfirmReset(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	stored, err = st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, stored.ForgotPasswordToken.IsValidated)
	// the short-lived token is persisted so the token check accepts it
	require.Equal(t, access, stored.AccessToken)
}

func TestConfirmResetNeutralDenials(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	// fabricated garbage
	access, err := svc.ConfirmReset(ctx, "FAKE")
	require.NoError(t, err)
	require.Empty(t, access)

	// validly signed token that was never persisted
	orphan, err := svc.Signer.IssueReset("user1@test.test", "user1", 30*time.Minute)
	require.NoError(t, err)
	access, err = svc.ConfirmReset(ctx, orphan)
	require.NoError(t, err)
	require.Empty(t, access)

	// expired stored token
	require.NoError(t, svc.ForgotPassword(ctx, "user1"))
	require.NoError(t, st.DB.Model(&models.ForgotPasswordToken{}).
		Where("account_id = ?", a.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	stored, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	access, err = svc.ConfirmReset(ctx, stored.ForgotPasswordToken.Token)
	require.NoError(t, err)
	require.Empty(t, access)
}

func TestResetPasswordFullFlow(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	require.NoError(t, svc.ForgotPassword(ctx, "user1"))
	stored, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)

	access, err := svc.ConfirmReset(ctx, stored.ForgotPasswordToken.Token)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	account, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(ctx, account, "NewPass123"))

	// access token emptied: full re-login required
	stored, err = st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, stored.AccessToken)
	require.True(t, hash.CheckPassword(stored.PasswordHash, "NewPass123"))
	require.False(t, hash.CheckPassword(stored.PasswordHash, testPassword))
}

func TestResetPasswordWhileLoggedIn(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	sessions := &SessionService{
		Store:      st,
		Signer:     svc.Signer,
		Hasher:     hash.Bcrypt{},
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	res, err := sessions.Login(ctx, "user1", testPassword)
	require.NoError(t, err)
	require.NotNil(t, res.Tokens.RefreshToken)

	require.NoError(t, svc.ForgotPassword(ctx, "user1"))
	stored, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	access, err := svc.ConfirmReset(ctx, stored.ForgotPasswordToken.Token)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	account, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(ctx, account, "NewPass123"))

	// the whole session is torn down, the pre-reset refresh row included
	stored, err = st.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, stored.AccessToken)
	require.Nil(t, stored.RefreshToken)

	old := res.Tokens.RefreshToken
	_, err = sessions.TokenCheck(ctx, "Bearer "+res.Tokens.AccessToken, &RefreshCookie{ID: old.ID, Token: old.Token})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResetPasswordRejectsWeak(t *testing.T) {
	svc, st, _ := newRecoveryService(t)
	ctx := context.Background()
	a := seedUser(t, st, "user1", "user1@test.test", authz.RoleUser)

	account, err := st.GetAccount(ctx, a.ID)
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, account, "weak")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "password", ve.Field)
	require.True(t, strings.Contains(ve.Reason, "8 characters"))
}
