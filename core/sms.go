package core

import "context"

// SMSBackend is any gateway that can deliver a text message.
// Backends are configured in priority order; the first one wins.
type SMSBackend interface {
	Name() string
	Send(ctx context.Context, to, body string) error
}
