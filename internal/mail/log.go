package mail

import (
	"context"

	"github.com/pavelkurin/portfolio_backend/internal/logging"
)

// LogMailer writes mail to the log instead of dispatching it. Used by the
// development profile and the tests.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m Message) error {
	logging.FromContext(ctx).Info("mail_dispatched", "to", m.To, "subject", m.Subject)
	return nil
}
