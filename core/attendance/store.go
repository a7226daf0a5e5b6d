package attendance

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the read-only view of the surrounding application's
// data this engine needs. It never writes through it.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (Session, error)
	// GetEnrolledStudents returns the course roster in a stable order.
	GetEnrolledStudents(ctx context.Context, courseID string) ([]Recipient, error)
	// GetPresentStudents returns the IDs of students checked in so far.
	// Callers must read it at the moment they need it: the set grows
	// concurrently while a session is open.
	GetPresentStudents(ctx context.Context, sessionID string) (map[string]struct{}, error)
}
