package schedulersvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type jobState int

const (
	jobArmed jobState = iota
	jobFired
	jobCancelled
)

type timerJob struct {
	id     attendance.JobHandle
	job    attendance.ReminderJob
	at     time.Time
	cancel chan struct{}

	mu    sync.Mutex
	state jobState
}

// markFired moves Armed -> Fired; false if the job is already terminal.
func (j *timerJob) markFired() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != jobArmed {
		return false
	}
	j.state = jobFired
	return true
}

func (j *timerJob) markCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != jobArmed {
		return false
	}
	j.state = jobCancelled
	return true
}

// TimerScheduler arms reminders on in-process timers. Jobs are owned
// by the process and lost on restart: an accepted degradation of this
// backend, not a correctness violation. Deployments that need jobs to
// survive restarts use QueueScheduler instead.
type TimerScheduler struct {
	dispatcher  attendance.Dispatcher
	clock       core.Clock
	logger      core.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu   sync.Mutex
	jobs map[attendance.JobHandle]*timerJob
	wg   sync.WaitGroup
}

var _ attendance.Scheduler = (*TimerScheduler)(nil)

func NewTimerScheduler(dispatcher attendance.Dispatcher, clk core.Clock, conf *core.Config, logger core.Logger) *TimerScheduler {
	maxAttempts := conf.Notification.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TimerScheduler{
		dispatcher:  dispatcher,
		clock:       clk,
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  conf.Notification.RetryDelay,
		jobs:        make(map[attendance.JobHandle]*timerJob),
	}
}

func (s *TimerScheduler) Schedule(_ context.Context, job attendance.ReminderJob, at time.Time) (attendance.JobHandle, error) {
	j := &timerJob{
		id:     attendance.JobHandle(uuid.New().String()),
		job:    job,
		at:     at,
		cancel: make(chan struct{}),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(j)
	return j.id, nil
}

// Cancel is idempotent: the state check below makes a second cancel,
// or a cancel racing the timer, a no-op.
func (s *TimerScheduler) Cancel(_ context.Context, h attendance.JobHandle) error {
	s.mu.Lock()
	j, ok := s.jobs[h]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if j.markCancelled() {
		close(j.cancel)
		s.logger.Debug(fmt.Sprintf("reminder job %s cancelled", h))
	}
	return nil
}

// Stop cancels all armed jobs and waits for running ones to finish.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	jobs := make([]*timerJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	for _, j := range jobs {
		if j.markCancelled() {
			close(j.cancel)
		}
	}
	s.wg.Wait()
}

func (s *TimerScheduler) run(j *timerJob) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.jobs, j.id)
		s.mu.Unlock()
	}()

	t := s.clock.Timer(j.at.Sub(s.clock.Now()))
	defer t.Stop()

	select {
	case <-t.C:
	case <-j.cancel:
		return
	}
	if !j.markFired() { // cancel won the race
		return
	}
	s.fire(j)
}

// fire runs the reminder batch with bounded retries. The whole batch
// is retried: recipients are recomputed from fresh store state on
// every attempt inside the dispatcher.
func (s *TimerScheduler) fire(j *timerJob) {
	ctx := context.Background()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			rt := s.clock.Timer(s.retryDelay)
			<-rt.C
		}
		err := s.dispatcher.DeliverExpiring(ctx, j.job.SessionID, j.job.Token)
		if err == nil {
			return
		}
		lastErr = err
		s.logger.Warn(fmt.Sprintf("reminder batch for session %s: attempt %d/%d failed: %v",
			j.job.SessionID, attempt, s.maxAttempts, err), err)
	}
	s.logger.Error(fmt.Sprintf("reminder retries exhausted for session %s after %d attempts",
		j.job.SessionID, s.maxAttempts), lastErr)
}
