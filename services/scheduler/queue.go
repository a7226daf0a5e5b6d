package schedulersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// TaskTypeExpiringReminder is the queue task type of a deferred
// expiring-session reminder.
const TaskTypeExpiringReminder = "attendance:expiring"

func redisOpt(conf *core.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	}
}

// QueueScheduler arms reminders as Redis-backed jobs with an "at"
// execution time. Jobs survive process restarts; a Worker picks them
// up when they come due.
type QueueScheduler struct {
	client      *asynq.Client
	inspector   *asynq.Inspector
	logger      core.Logger
	maxAttempts int
}

var _ attendance.Scheduler = (*QueueScheduler)(nil)

func NewQueueScheduler(conf *core.Config, logger core.Logger) *QueueScheduler {
	maxAttempts := conf.Notification.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	opt := redisOpt(conf)
	return &QueueScheduler{
		client:      asynq.NewClient(opt),
		inspector:   asynq.NewInspector(opt),
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

func (s *QueueScheduler) Schedule(ctx context.Context, job attendance.ReminderJob, at time.Time) (attendance.JobHandle, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", errors.Wrap(err, "marshalling reminder job")
	}

	info, err := s.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeExpiringReminder, payload),
		asynq.ProcessAt(at),
		asynq.MaxRetry(s.maxAttempts-1), // attempts = 1 + retries
	)
	if err != nil {
		return "", errors.Wrap(err, "enqueueing reminder job")
	}
	return attendance.JobHandle(info.ID), nil
}

// Cancel deletes the job from the scheduled set. A job already picked
// up (fired) or unknown is a no-op.
func (s *QueueScheduler) Cancel(_ context.Context, h attendance.JobHandle) error {
	err := s.inspector.DeleteTask("default", string(h))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return errors.Wrapf(err, "cancelling reminder job %s", h)
}

func (s *QueueScheduler) Close() error {
	return s.client.Close()
}

// NewExpiringReminderHandler returns the queue handler for reminder
// tasks. Returning an error triggers the worker's retry policy; a
// malformed payload skips retries outright.
func NewExpiringReminderHandler(dispatcher attendance.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var job attendance.ReminderJob
		if err := json.Unmarshal(t.Payload(), &job); err != nil {
			return fmt.Errorf("unmarshalling reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		return dispatcher.DeliverExpiring(ctx, job.SessionID, job.Token)
	}
}

// Worker consumes due reminder jobs. Run one per deployment when the
// queue backend is selected.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(dispatcher attendance.Dispatcher, conf *core.Config, logger core.Logger) *Worker {
	retryDelay := conf.Notification.RetryDelay

	srv := asynq.NewServer(redisOpt(conf), asynq.Config{
		Concurrency: 10,
		RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
			return retryDelay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried >= maxRetry {
				logger.Error(fmt.Sprintf("%s: retries exhausted: %v", task.Type(), err), err)
				return
			}
			logger.Warn(fmt.Sprintf("%s: attempt %d/%d failed: %v", task.Type(), retried+1, maxRetry+1, err), err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeExpiringReminder, NewExpiringReminderHandler(dispatcher))
	return &Worker{srv: srv, mux: mux}
}

// Run blocks until SIGTERM/SIGINT.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
