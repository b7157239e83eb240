package service

import (
	"context"
	"errors"
	"net/mail"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/hash"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	outmail "github.com/pavelkurin/portfolio_backend/internal/mail"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/store"
)

// AccountService covers registration, profile updates, deletion and listing.
// Every mutation goes through the role policy with the caller's identity
// passed explicitly.
type AccountService struct {
	Store  store.CredentialStore
	Policy authz.Policy
	Hasher PasswordHasher
	Mailer outmail.Mailer
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     authz.Role
}

type UpdateRequest struct {
	Username string
	Email    string
	Password string
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 64 {
		return &ValidationError{Field: "username", Reason: "must be 3-64 characters"}
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return nil
}

func validatePassword(password string) error {
	if err := hash.ValidateStrength(password); err != nil {
		return &ValidationError{Field: "password", Reason: err.Error()}
	}
	return nil
}

// Register creates an account. Role defaults to User; registering an elevated
// role without a SuperUser actor returns (nil, nil) so the caller can answer
// with a neutral no-op response instead of revealing the rule.
func (s *AccountService) Register(ctx context.Context, actor *authz.Actor, req RegisterRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "accounts.register")

	if req.Role == "" {
		req.Role = authz.RoleUser
	}
	if !req.Role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if !s.Policy.CanRegisterRole(actor, req.Role) {
		l.Warn("register_denied", "reason", "role_escalation", "role", string(req.Role))
		return nil, nil
	}

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if taken, err := s.Store.EmailTaken(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		l.Warn("register_failed", "reason", "email_taken")
		return nil, unavailableEmail()
	}
	if taken, err := s.Store.UsernameTaken(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		l.Warn("register_failed", "reason", "username_taken")
		return nil, unavailableUsername()
	}

	digest, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	account := &models.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
		Role:         req.Role,
	}
	if err := s.Store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.notify(ctx, account.Email, "Welcome", "Your account has been created.")
	l.Info("register_successful", "account_id", account.ID)
	return account, nil
}

// Update edits profile fields. The stored access token is left untouched so a
// role-permitted session survives the edit.
func (s *AccountService) Update(ctx context.Context, actor authz.Actor, targetID uint, req UpdateRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "accounts.update", "target_id", targetID)

	account, err := s.Store.GetAccount(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	target := authz.Target{ID: account.ID, Email: account.Email, Role: account.Role}
	if !s.Policy.CanActOn(actor, target, authz.OpUpdate) {
		l.Warn("update_denied", "actor_id", actor.ID)
		return nil, ErrUnauthorized
	}

	if req.Username != "" && req.Username != account.Username {
		if err := validateUsername(req.Username); err != nil {
			return nil, err
		}
		if taken, err := s.Store.UsernameTaken(ctx, req.Username); err != nil {
			return nil, err
		} else if taken {
			return nil, unavailableUsername()
		}
		account.Username = req.Username
	}
	if req.Email != "" && req.Email != account.Email {
		if err := validateEmail(req.Email); err != nil {
			return nil, err
		}
		if taken, err := s.Store.EmailTaken(ctx, req.Email); err != nil {
			return nil, err
		} else if taken {
			return nil, unavailableEmail()
		}
		account.Email = req.Email
	}
	if req.Password != "" {
		if err := validatePassword(req.Password); err != nil {
			return nil, err
		}
		digest, err := s.Hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = digest
	}

	if err := s.Store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.notify(ctx, account.Email, "Account updated", "Your account details were changed.")
	l.Info("update_successful")
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, actor authz.Actor, targetID uint) error {
	l := logging.FromContext(ctx).With("svc", "accounts.delete", "target_id", targetID)

	account, err := s.Store.GetAccount(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	target := authz.Target{ID: account.ID, Email: account.Email, Role: account.Role}
	if !s.Policy.CanActOn(actor, target, authz.OpDelete) {
		l.Warn("delete_denied", "actor_id", actor.ID)
		return ErrUnauthorized
	}

	if err := s.Store.DeleteAccount(ctx, targetID); err != nil {
		return err
	}

	s.notify(ctx, account.Email, "Account deleted", "Your account has been removed.")
	l.Info("delete_successful")
	return nil
}

func (s *AccountService) List(ctx context.Context, actor authz.Actor) ([]models.Account, error) {
	if !s.Policy.CanListAccounts(actor) {
		return nil, ErrUnauthorized
	}
	return s.Store.ListAccounts(ctx)
}

// notify dispatches a lifecycle email after the mutation has been persisted.
// Failures are logged and dropped, never rolled back into the caller.
func (s *AccountService) notify(ctx context.Context, to, subject, body string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, outmail.AccountNotice(to, subject, body)); err != nil {
		logging.FromContext(ctx).Error("mail_dispatch_failed", "to", to, "error", err)
	}
}

// IdentityOf builds the policy-facing actor from a loaded account.
func IdentityOf(a *models.Account) authz.Actor {
	return authz.Actor{ID: a.ID, Email: a.Email, Role: a.Role}
}
