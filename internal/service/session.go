package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/store"
	"github.com/pavelkurin/portfolio_backend/internal/tokens"
)

const bearerPrefix = "Bearer "

// PasswordHasher is the black-box password digest capability. The bcrypt
// implementation lives in internal/hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// SessionService runs the login/refresh/logout state machine. Each account is
// either logged out (empty access token, no refresh row) or logged in (both
// present); every transition re-reads the store afterwards and fails with
// ErrUpdateFailed when the write did not stick.
type SessionService struct {
	Store      store.CredentialStore
	Signer     *tokens.Signer
	Hasher     PasswordHasher
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionTokens is a freshly issued access/refresh pair.
type SessionTokens struct {
	AccessToken  string
	RefreshToken *models.RefreshToken
}

// LoginResult distinguishes a verified login from a password mismatch. A
// mismatch is not an error: the transport reports it inside a normal success
// envelope so all login responses share one shape.
type LoginResult struct {
	Account           *models.Account
	Tokens            *SessionTokens
	PasswordIncorrect bool
}

// RefreshCookie is the client-held copy of the refresh token, used by the
// strict token check variant.
type RefreshCookie struct {
	ID    string
	Token string
}

func newRefreshValue() (string, error) {
	// 512 bits of entropy, hex-encoded.
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	accounts, err := s.Store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		l.Warn("login_failed", "reason", "account_not_found")
		return nil, ErrAccountNotFound
	}

	for i := range accounts {
		a := &accounts[i]
		if !s.Hasher.Verify(password, a.PasswordHash) {
			continue
		}
		tks, err := s.issueSession(ctx, a)
		if err != nil {
			return nil, err
		}
		l.Info("login_successful", "account_id", a.ID)
		return &LoginResult{Account: a, Tokens: tks}, nil
	}

	l.Warn("login_failed", "reason", "password_incorrect")
	return &LoginResult{PasswordIncorrect: true}, nil
}

// Refresh rotates both tokens wholesale. It is idempotent in the sense that a
// retry simply rotates again; the previous pair stops validating either way.
func (s *SessionService) Refresh(ctx context.Context, actorID uint) (*SessionTokens, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh", "account_id", actorID)

	account, err := s.Store.GetAccount(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if account.AccessToken == "" || account.RefreshToken == nil {
		l.Warn("refresh_denied", "reason", "no_active_session")
		return nil, ErrUnauthorized
	}

	tks, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}
	l.Info("tokens_rotated")
	return tks, nil
}

func (s *SessionService) Logout(ctx context.Context, actorID uint) error {
	l := logging.FromContext(ctx).With("svc", "session.logout", "account_id", actorID)

	if err := s.Store.ClearSession(ctx, actorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	stored, err := s.Store.GetAccount(ctx, actorID)
	if err != nil {
		return err
	}
	if stored.AccessToken != "" || stored.RefreshToken != nil {
		l.Error("logout_failed", "reason", "post_write_mismatch")
		return ErrUpdateFailed
	}
	l.Info("logout_successful")
	return nil
}

// TokenCheck authenticates a request. The Authorization header must carry the
// exact access token stored on the claimed account; signature validity alone
// is not enough. When cookie is non-nil the stored refresh token must also
// match by id and value and be unexpired.
func (s *SessionService) TokenCheck(ctx context.Context, authorization string, cookie *RefreshCookie) (*models.Account, error) {
	token, found := strings.CutPrefix(authorization, bearerPrefix)
	if !found || token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.Signer.ValidateAccess(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	account, err := s.Store.GetAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if account.AccessToken == "" || account.AccessToken != token {
		return nil, ErrUnauthorized
	}

	if cookie != nil {
		rt := account.RefreshToken
		if rt == nil || rt.ID != cookie.ID || rt.Token != cookie.Token || rt.Expired(time.Now()) {
			return nil, ErrUnauthorized
		}
	}
	return account, nil
}

// issueSession mints a new access/refresh pair, persists it atomically and
// re-reads the account to confirm both values landed.
func (s *SessionService) issueSession(ctx context.Context, account *models.Account) (*SessionTokens, error) {
	access, err := s.Signer.IssueAccess(account.ID, account.Role, account.Email, account.Username, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	value, err := newRefreshValue()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	rt := &models.RefreshToken{
		ID:        uuid.NewString(),
		Token:     value,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.RefreshTTL),
	}

	if err := s.Store.SaveSession(ctx, account.ID, access, rt); err != nil {
		return nil, err
	}

	stored, err := s.Store.GetAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if stored.AccessToken != access ||
		stored.RefreshToken == nil ||
		stored.RefreshToken.ID != rt.ID ||
		stored.RefreshToken.Token != rt.Token {
		return nil, ErrUpdateFailed
	}

	account.AccessToken = access
	account.RefreshToken = rt
	return &SessionTokens{AccessToken: access, RefreshToken: rt}, nil
}
