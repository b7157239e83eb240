package service

import (
	"context"
	"errors"
	"time"

	"github.com/pavelkurin/portfolio_backend/internal/logging"
	outmail "github.com/pavelkurin/portfolio_backend/internal/mail"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/store"
	"github.com/pavelkurin/portfolio_backend/internal/tokens"
)

// RecoveryService runs the forgot-password state machine:
// Requested -> Issued -> Confirmed -> Reset. Confirmation failures deny
// neutrally so the endpoint cannot be used as an account oracle.
type RecoveryService struct {
	Store      store.CredentialStore
	Signer     *tokens.Signer
	Hasher     PasswordHasher
	Mailer     outmail.Mailer
	BaseURL    string
	ResetTTL   time.Duration
	ConfirmTTL time.Duration
}

// ForgotPassword issues a reset token for the account matching identifier,
// username first, email second. The token is persisted unvalidated and the
// confirmation link is mailed out after the write has been verified.
func (s *RecoveryService) ForgotPassword(ctx context.Context, identifier string) error {
	l := logging.FromContext(ctx).With("svc", "recovery.forgot")

	account, err := s.Store.FindByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		account, err = s.Store.FindByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("forgot_failed", "reason", "account_not_found")
			return ErrAccountNotFound
		}
		return err
	}

	token, err := s.Signer.IssueReset(account.Email, account.Username, s.ResetTTL)
	if err != nil {
		return err
	}
	now := time.Now()
	fpt := &models.ForgotPasswordToken{
		Token:     token,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ResetTTL),
	}
	if err := s.Store.SaveResetToken(ctx, account.ID, fpt); err != nil {
		return err
	}

	stored, err := s.Store.GetAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	if stored.ForgotPasswordToken == nil || stored.ForgotPasswordToken.Token != token {
		l.Error("forgot_failed", "reason", "post_write_mismatch")
		return ErrUpdateFailed
	}

	if s.Mailer != nil {
		if err := s.Mailer.Send(ctx, outmail.ResetMessage(account.Email, s.BaseURL, token)); err != nil {
			logging.FromContext(ctx).Error("mail_dispatch_failed", "to", account.Email, "error", err)
		}
	}
	l.Info("reset_token_issued", "account_id", account.ID)
	return nil
}

// ConfirmReset validates a reset link. On success it marks the stored token
// validated and returns a short-lived access token that authorizes exactly
// the follow-up ResetPassword call. Any validation failure returns ("", nil):
// the caller answers with a neutral denial, never an error.
func (s *RecoveryService) ConfirmReset(ctx context.Context, token string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "recovery.confirm")

	claims, err := s.Signer.ValidateReset(token)
	if err != nil {
		l.Warn("confirm_denied", "reason", "invalid_token")
		return "", nil
	}

	account, err := s.Store.FindByEmail(ctx, claims.Email)
	if errors.Is(err, store.ErrNotFound) {
		account, err = s.Store.FindByUsername(ctx, claims.Username)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("confirm_denied", "reason", "no_matching_account")
			return "", nil
		}
		return "", err
	}

	fpt := account.ForgotPasswordToken
	if fpt == nil || fpt.Token != token || fpt.Expired(time.Now()) {
		l.Warn("confirm_denied", "reason", "token_mismatch_or_expired")
		return "", nil
	}

	if err := s.Store.MarkResetValidated(ctx, account.ID); err != nil {
		return "", err
	}
	stored, err := s.Store.GetAccount(ctx, account.ID)
	if err != nil {
		return "", err
	}
	if stored.ForgotPasswordToken == nil || !stored.ForgotPasswordToken.IsValidated {
		l.Error("confirm_failed", "reason", "post_write_mismatch")
		return "", ErrUpdateFailed
	}

	access, err := s.Signer.IssueAccess(account.ID, account.Role, account.Email, account.Username, s.ConfirmTTL)
	if err != nil {
		return "", err
	}
	if err := s.Store.SetAccessToken(ctx, account.ID, access); err != nil {
		return "", err
	}
	stored, err = s.Store.GetAccount(ctx, account.ID)
	if err != nil {
		return "", err
	}
	if stored.AccessToken != access {
		l.Error("confirm_failed", "reason", "post_write_mismatch")
		return "", ErrUpdateFailed
	}

	l.Info("reset_confirmed", "account_id", account.ID)
	return access, nil
}

// ResetPassword stores a new digest for the already-authenticated account,
// tears down any remaining session (access token and refresh row) so a full
// login is required, and verifies the new digest accepts the submitted
// plaintext before declaring success.
func (s *RecoveryService) ResetPassword(ctx context.Context, account *models.Account, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "recovery.reset", "account_id", account.ID)

	if err := validatePassword(newPassword); err != nil {
		return err
	}
	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.UpdatePassword(ctx, account.ID, digest); err != nil {
		return err
	}

	stored, err := s.Store.GetAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	if stored.AccessToken != "" || stored.RefreshToken != nil || !s.Hasher.Verify(newPassword, stored.PasswordHash) {
		l.Error("reset_failed", "reason", "post_write_mismatch")
		return ErrUpdateFailed
	}

	l.Info("password_reset")
	return nil
}
