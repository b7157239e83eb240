package mail

import (
	"context"
	"fmt"
	"net/url"
)

// Message is an outbound email. Delivery itself happens out of process; this
// package only hands messages to a dispatcher.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// ResetLink builds the confirmation URL embedded in a forgot-password email.
func ResetLink(baseURL, token string) string {
	return fmt.Sprintf("%s/api/Auth/resetPasswordConfirmation?token=%s", baseURL, url.QueryEscape(token))
}

func ResetMessage(to, baseURL, token string) Message {
	link := ResetLink(baseURL, token)
	return Message{
		To:      to,
		Subject: "Password reset request",
		Body:    "Follow the link to confirm your password reset. The link expires in 30 minutes.\n\n" + link,
	}
}

func AccountNotice(to, subject, body string) Message {
	return Message{To: to, Subject: subject, Body: body}
}
