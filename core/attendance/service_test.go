package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []struct {
		job ReminderJob
		at  time.Time
	}
	cancelled []JobHandle
}

var _ Scheduler = (*fakeScheduler)(nil)

func (s *fakeScheduler) Schedule(_ context.Context, job ReminderJob, at time.Time) (JobHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, struct {
		job ReminderJob
		at  time.Time
	}{job, at})
	return "job-1", nil
}

func (s *fakeScheduler) Cancel(_ context.Context, h JobHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, h)
	return nil
}

func newTestService(t *testing.T, mock *clock.Mock) (*Service, *TestStore, *fakeScheduler) {
	t.Helper()
	store := NewTestStore()
	notifier := NewNotifier(store, NewProvider(NewTestMailTransport(), nil, 0, testLogger()), NewComposer(15*time.Minute), testLogger())
	sched := &fakeScheduler{}
	svc := NewService(store, notifier, sched, mock, 15*time.Minute, testLogger())
	return svc, store, sched
}

// A reminder is armed iff now < createdAt + validity - leadTime;
// the boundary counts as not armed.
func TestServiceScheduleExpiringReminderDeadline(t *testing.T) {
	createdAt := time.Date(2021, 3, 8, 9, 0, 0, 0, time.UTC)
	fireAt := createdAt.Add(4*time.Hour - 15*time.Minute)

	tests := []struct {
		name      string
		now       time.Time
		wantArmed bool
	}{
		{name: "well before the deadline", now: createdAt, wantArmed: true},
		{name: "one second before", now: fireAt.Add(-time.Second), wantArmed: true},
		{name: "exactly at the deadline", now: fireAt, wantArmed: false},
		{name: "past the deadline", now: fireAt.Add(time.Minute), wantArmed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			mock.Set(tt.now)
			svc, store, sched := newTestService(t, mock)
			store.PutSession(Session{ID: "a1", Course: Course{ID: "c1"}, CreatedAt: createdAt, Validity: 4 * time.Hour})

			h, armed, err := svc.ScheduleExpiringReminder(context.Background(), "a1", "XK42P")
			require.NoError(t, err)
			assert.Equal(t, tt.wantArmed, armed)
			if tt.wantArmed {
				require.Len(t, sched.scheduled, 1)
				assert.Equal(t, fireAt, sched.scheduled[0].at)
				assert.Equal(t, ReminderJob{SessionID: "a1", Token: "XK42P"}, sched.scheduled[0].job)
				assert.NotEmpty(t, h)
			} else {
				assert.Empty(t, sched.scheduled)
				assert.Empty(t, h)
			}
		})
	}
}

func TestServiceScheduleExpiringReminderUnknownSession(t *testing.T) {
	svc, _, sched := newTestService(t, clock.NewMock())

	_, armed, err := svc.ScheduleExpiringReminder(context.Background(), "nope", "XK42P")
	require.Error(t, err)
	assert.False(t, armed)
	assert.Empty(t, sched.scheduled)
}

func TestServiceCancelDelegatesToScheduler(t *testing.T) {
	svc, _, sched := newTestService(t, clock.NewMock())

	require.NoError(t, svc.CancelScheduledReminder(context.Background(), "job-1"))
	require.NoError(t, svc.CancelScheduledReminder(context.Background(), "job-1")) // idempotent at the boundary too
	assert.Equal(t, []JobHandle{"job-1", "job-1"}, sched.cancelled)
}
