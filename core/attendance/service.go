package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Service is the boundary the surrounding application calls. Started
// and Missed notifications run synchronously; Expiring reminders are
// armed on the configured Scheduler backend and fire later on their
// own.
type Service struct {
	store     SessionStore
	notifier  *Notifier
	scheduler Scheduler
	clock     core.Clock
	leadTime  time.Duration
	logger    core.Logger
}

func NewService(store SessionStore, notifier *Notifier, scheduler Scheduler, clk core.Clock, leadTime time.Duration, logger core.Logger) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		scheduler: scheduler,
		clock:     clk,
		leadTime:  leadTime,
		logger:    logger,
	}
}

// NotifySessionStarted notifies every enrolled student that the
// session is open. Individual failures are captured in the report and
// never abort the remaining recipients.
func (s *Service) NotifySessionStarted(ctx context.Context, sessionID, token string) (BatchReport, error) {
	return s.notifier.Notify(ctx, EventStarted, sessionID, token)
}

// ScheduleExpiringReminder arms a reminder at expiry minus the lead
// time. Returns false, without arming anything, when that moment has
// already passed (boundary included): the session is too close to
// expiry for a meaningful reminder.
func (s *Service) ScheduleExpiringReminder(ctx context.Context, sessionID, token string) (JobHandle, bool, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", false, err
	}

	fireAt := sess.ExpiresAt().Add(-s.leadTime)
	if !s.clock.Now().Before(fireAt) {
		s.logger.Info(fmt.Sprintf("reminder for session %s not scheduled: fire time %s already passed",
			sessionID, fireAt.Format(time.RFC3339)))
		return "", false, nil
	}

	h, err := s.scheduler.Schedule(ctx, ReminderJob{SessionID: sessionID, Token: token}, fireAt)
	if err != nil {
		return "", false, err
	}
	s.logger.Debug(fmt.Sprintf("reminder for session %s armed at %s (job %s)", sessionID, fireAt.Format(time.RFC3339), h))
	return h, true, nil
}

// NotifySessionMissed notifies the students absent from the closed
// session. Call it once, after the session transitions to closed.
func (s *Service) NotifySessionMissed(ctx context.Context, sessionID string) (BatchReport, error) {
	return s.notifier.Notify(ctx, EventMissed, sessionID, "")
}

// CancelScheduledReminder cancels an armed reminder. Idempotent;
// cancelling a fired or unknown job is a no-op.
func (s *Service) CancelScheduledReminder(ctx context.Context, h JobHandle) error {
	return s.scheduler.Cancel(ctx, h)
}
