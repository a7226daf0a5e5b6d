package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// SendError is a provider send failure. It always identifies the
// provider it came from so failures can be attributed in reports.
type SendError struct {
	Provider string
	Err      error
}

func NewSendError(provider string, err error) error {
	return &SendError{Provider: provider, Err: err}
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

func IsSendError(err error) bool {
	_, ok := errors.Cause(err).(*SendError)
	return ok
}
