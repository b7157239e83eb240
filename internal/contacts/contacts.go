package contacts

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

var ErrNotFound = errors.New("contact not found")

// Service is the visitor mailbox. The database is the source of truth; the
// Elasticsearch index is best-effort and only serves search.
type Service struct {
	DB     *gorm.DB
	ES     *elasticsearch.Client
	Index  string
	Policy authz.Policy
}

// target treats a contact as a plain-User resource for policy purposes, so the
// usual email-only read/delete scoping applies.
func target(c *models.Contact) authz.Target {
	return authz.Target{Email: c.Email, Role: authz.RoleUser}
}

// Create stores a visitor message. No authentication: anyone may write in.
func (s *Service) Create(ctx context.Context, c *models.Contact) error {
	l := logging.FromContext(ctx).With("svc", "contacts.create")

	if c.Name == "" || c.Email == "" || c.Message == "" {
		return &service.ValidationError{Field: "contact", Reason: "name, email and message are required"}
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}

	if err := s.index(ctx, c); err != nil {
		l.Warn("contact_index_failed", "contact_id", c.ID, "error", err)
	}
	l.Info("contact_created", "contact_id", c.ID)
	return nil
}

// List returns the mailbox scoped by role: a User only sees messages left
// under their own email, Admin and SuperUser see everything.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]models.Contact, error) {
	q := s.DB.WithContext(ctx).Order("created_at desc")
	if !actor.Role.AtLeast(authz.RoleAdmin) {
		q = q.Where("email = ?", actor.Email)
	}
	var out []models.Contact
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id uint) (*models.Contact, error) {
	var c models.Contact
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.Policy.CanActOn(actor, target(&c), authz.OpRead) {
		return nil, service.ErrUnauthorized
	}
	return &c, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	l := logging.FromContext(ctx).With("svc", "contacts.delete", "contact_id", id)

	var c models.Contact
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.Policy.CanActOn(actor, target(&c), authz.OpDelete) {
		l.Warn("delete_denied", "actor_id", actor.ID)
		return service.ErrUnauthorized
	}
	if err := s.DB.WithContext(ctx).Delete(&models.Contact{}, id).Error; err != nil {
		return err
	}

	if err := s.deindex(ctx, id); err != nil {
		l.Warn("contact_deindex_failed", "error", err)
	}
	l.Info("contact_deleted")
	return nil
}
