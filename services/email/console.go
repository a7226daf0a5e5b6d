package emailsvc

import (
	"context"
	"fmt"
	"net/mail"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// consoleTransport logs messages instead of sending them and records
// them in SentMessages. DEV fallback when no SendGrid key is set.
type consoleTransport struct {
	subjPrefix    string
	logger        core.Logger
	disableOutput bool
}

var _ core.MailTransport = (*consoleTransport)(nil)

func NewConsoleTransport(conf *core.Config, logger core.Logger) core.MailTransport {
	return &consoleTransport{
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

// NewConsoleTransportMock records silently; for tests.
func NewConsoleTransportMock(conf *core.Config, logger core.Logger) core.MailTransport {
	return &consoleTransport{
		subjPrefix:    "[" + conf.AppName + "] ",
		logger:        logger,
		disableOutput: true,
	}
}

func (t *consoleTransport) Name() string { return "console" }

func (t *consoleTransport) Send(_ context.Context, to mail.Address, subject, htmlBody, textBody string) error {
	msg := core.EmailMessage{To: to, Subject: t.subjPrefix + subject, TextBody: textBody, HTMLBody: htmlBody}
	if !msg.HasContent() {
		return errors.Errorf("empty message body for %s", to.Address)
	}
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()

	if !t.disableOutput {
		t.logger.Info(fmt.Sprintf("email to %s - subject: %q - body: %s", to.String(), msg.Subject, textBody))
	}
	return nil
}

func ResetSentMessages() {
	mu.Lock()
	defer mu.Unlock()
	SentMessages = SentMessages[:0]
}
