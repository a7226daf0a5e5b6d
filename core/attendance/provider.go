package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

const defaultSendTimeout = 10 * time.Second

// Provider is the uniform send surface over the configured mail
// transport and SMS backends. SMS backends are tried in the order
// given at construction: the first configured one wins. With none
// configured it degrades to a simulated backend that always succeeds
// and records the send, so the engine stays exercisable without live
// credentials.
type Provider struct {
	mail    core.MailTransport
	sms     []core.SMSBackend
	timeout time.Duration
	logger  core.Logger
}

func NewProvider(mailTransport core.MailTransport, sms []core.SMSBackend, timeout time.Duration, logger core.Logger) *Provider {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if len(sms) == 0 {
		sms = []core.SMSBackend{simSMSBackend{logger: logger}}
	}
	return &Provider{
		mail:    mailTransport,
		sms:     sms,
		timeout: timeout,
		logger:  logger,
	}
}

// Send delivers one composed message on one channel. Every failure,
// backend panics included, comes back as a core.SendError naming the
// provider; nothing escapes. Each send is bounded by the configured
// timeout at this boundary, not by backend cooperation: the deadline
// cuts off even a backend that ignores its context.
func (p *Provider) Send(ctx context.Context, ch Channel, addr string, content Content) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch ch {
	case ChannelEmail:
		return p.bounded(ctx, p.mail.Name(), func() error {
			return p.mail.Send(ctx, mail.Address{Address: addr}, content.Subject, content.HTMLBody, content.TextBody)
		})
	case ChannelSMS:
		backend := p.sms[0]
		return p.bounded(ctx, backend.Name(), func() error {
			return backend.Send(ctx, addr, content.TextBody)
		})
	}
	return core.NewSendError("provider", errors.Errorf("unknown channel %q", ch))
}

// bounded runs send in its own goroutine and returns at the deadline
// regardless. A backend that never returns leaves its goroutine
// behind but cannot hold up the delivery batch.
func (p *Provider) bounded(ctx context.Context, provider string, send func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- core.NewSendError(provider, errors.Errorf("panic: %v", r))
			}
		}()
		done <- send()
	}()

	select {
	case err := <-done:
		if err != nil && !core.IsSendError(err) {
			return core.NewSendError(provider, err)
		}
		return err
	case <-ctx.Done():
		return core.NewSendError(provider, ctx.Err())
	}
}

// SimulatedSend is one SMS recorded by the fallback backend.
type SimulatedSend struct {
	To   string
	Body string
}

var (
	simulatedSends []SimulatedSend
	simMu          sync.Mutex
)

// SimulatedSends returns a copy of the sends recorded by the fallback backend.
func SimulatedSends() []SimulatedSend {
	simMu.Lock()
	defer simMu.Unlock()
	return append([]SimulatedSend(nil), simulatedSends...)
}

func ResetSimulatedSends() {
	simMu.Lock()
	defer simMu.Unlock()
	simulatedSends = nil
}

type simSMSBackend struct {
	logger core.Logger
}

var _ core.SMSBackend = simSMSBackend{}

func (b simSMSBackend) Name() string { return "simulated" }

func (b simSMSBackend) Send(_ context.Context, to, body string) error {
	simMu.Lock()
	simulatedSends = append(simulatedSends, SimulatedSend{To: to, Body: body})
	simMu.Unlock()
	b.logger.Info(fmt.Sprintf("simulating SMS to %s: %s", to, body))
	return nil
}
