package core

import (
	"context"
	"net/mail"
)

type (
	// EmailMessage is one composed email, ready to hand to a transport.
	EmailMessage struct {
		To       mail.Address
		Subject  string
		TextBody string
		HTMLBody string
	}

	// MailTransport is any service that can deliver an email.
	MailTransport interface {
		Name() string
		Send(ctx context.Context, to mail.Address, subject, htmlBody, textBody string) error
	}
)

func (m EmailMessage) HasContent() bool { return (m.TextBody != "") || (m.HTMLBody != "") }
