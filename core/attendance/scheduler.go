package attendance

import (
	"context"
	"time"
)

type (
	// ReminderJob is the payload of one deferred expiring-reminder
	// dispatch. Keep it serializable: the durable backend ships it
	// through Redis.
	ReminderJob struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}

	// JobHandle identifies one armed job for cancellation. Opaque;
	// its shape depends on the backend.
	JobHandle string

	// Scheduler arms deferred reminder dispatches. An armed job either
	// fires exactly once or is cancelled before firing, never both.
	// Implementations own the retry policy of fired batches.
	Scheduler interface {
		Schedule(ctx context.Context, job ReminderJob, at time.Time) (JobHandle, error)
		// Cancel is idempotent and safe from any goroutine. Cancelling
		// a fired or unknown handle is a no-op.
		Cancel(ctx context.Context, h JobHandle) error
	}

	// Dispatcher is what scheduler backends call back into when a job
	// fires. Implemented by Notifier.
	Dispatcher interface {
		DeliverExpiring(ctx context.Context, sessionID, token string) error
	}
)

var _ Dispatcher = (*Notifier)(nil)
