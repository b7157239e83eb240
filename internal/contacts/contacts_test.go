package contacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
	"github.com/pavelkurin/portfolio_backend/internal/store"
)

func newMailbox(t *testing.T) *Service {
	t.Helper()
	db, err := store.OpenSQLiteMemory()
	require.NoError(t, err)
	return &Service{
		DB:     db,
		Index:  "contacts",
		Policy: authz.Policy{DefaultSuperUserEmail: "root@portfolio.test"},
	}
}

func seedContact(t *testing.T, s *Service, email, message string) *models.Contact {
	t.Helper()
	c := &models.Contact{Name: "visitor", Email: email, Message: message}
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func TestCreateValidation(t *testing.T) {
	s := newMailbox(t)

	err := s.Create(context.Background(), &models.Contact{Name: "x"})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)

	c := seedContact(t, s, "visitor@test.test", "hello")
	require.NotZero(t, c.ID)
}

func TestListScopedByRole(t *testing.T) {
	s := newMailbox(t)
	ctx := context.Background()
	seedContact(t, s, "alice@x.com", "from alice")
	seedContact(t, s, "bob@x.com", "from bob")

	admin := authz.Actor{ID: 1, Email: "admin@x.com", Role: authz.RoleAdmin}
	all, err := s.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)

	alice := authz.Actor{ID: 5, Email: "alice@x.com", Role: authz.RoleUser}
	mine, err := s.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "from alice", mine[0].Message)
}

func TestGetEmailScoping(t *testing.T) {
	s := newMailbox(t)
	ctx := context.Background()
	c := seedContact(t, s, "alice@x.com", "hi")

	alice := authz.Actor{ID: 5, Email: "alice@x.com", Role: authz.RoleUser}
	got, err := s.Get(ctx, alice, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	bob := authz.Actor{ID: 6, Email: "bob@x.com", Role: authz.RoleUser}
	_, err = s.Get(ctx, bob, c.ID)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = s.Get(ctx, alice, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePolicy(t *testing.T) {
	s := newMailbox(t)
	ctx := context.Background()
	c := seedContact(t, s, "alice@x.com", "hi")

	bob := authz.Actor{ID: 6, Email: "bob@x.com", Role: authz.RoleUser}
	require.ErrorIs(t, s.Delete(ctx, bob, c.ID), service.ErrUnauthorized)

	admin := authz.Actor{ID: 1, Email: "admin@x.com", Role: authz.RoleAdmin}
	require.NoError(t, s.Delete(ctx, admin, c.ID))
	require.ErrorIs(t, s.Delete(ctx, admin, c.ID), ErrNotFound)
}

func TestDeleteContactWithPinnedSuperUserEmail(t *testing.T) {
	s := newMailbox(t)
	ctx := context.Background()
	// a visitor message under the pinned email is an ordinary contact, not
	// the protected account
	c := seedContact(t, s, "root@portfolio.test", "mail to myself")

	admin := authz.Actor{ID: 1, Email: "admin@x.com", Role: authz.RoleAdmin}
	require.NoError(t, s.Delete(ctx, admin, c.ID))
	require.ErrorIs(t, s.Delete(ctx, admin, c.ID), ErrNotFound)
}

func TestSearchGuards(t *testing.T) {
	s := newMailbox(t)
	ctx := context.Background()

	user := authz.Actor{ID: 5, Email: "alice@x.com", Role: authz.RoleUser}
	_, _, err := s.Search(ctx, user, "hello", 0, 10)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	// no ES configured
	admin := authz.Actor{ID: 1, Email: "admin@x.com", Role: authz.RoleAdmin}
	_, _, err = s.Search(ctx, admin, "hello", 0, 10)
	require.ErrorIs(t, err, ErrSearchUnavailable)
}
