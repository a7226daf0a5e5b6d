package schedulersvc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

func TestExpiringReminderHandler(t *testing.T) {
	t.Run("delegates to the dispatcher", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		handler := NewExpiringReminderHandler(dispatcher)

		payload, err := json.Marshal(attendance.ReminderJob{SessionID: "a1", Token: "XK42P"})
		require.NoError(t, err)

		err = handler(context.Background(), asynq.NewTask(TaskTypeExpiringReminder, payload))
		require.NoError(t, err)
		require.Equal(t, 1, dispatcher.count())
		assert.Equal(t, attendance.ReminderJob{SessionID: "a1", Token: "XK42P"}, dispatcher.calls[0])
	})

	t.Run("propagates batch failure for retry", func(t *testing.T) {
		boom := errors.New("gateway down")
		dispatcher := &fakeDispatcher{errs: []error{boom}}
		handler := NewExpiringReminderHandler(dispatcher)

		payload, _ := json.Marshal(attendance.ReminderJob{SessionID: "a1"})
		err := handler(context.Background(), asynq.NewTask(TaskTypeExpiringReminder, payload))
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed payload skips retries", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		handler := NewExpiringReminderHandler(dispatcher)

		err := handler(context.Background(), asynq.NewTask(TaskTypeExpiringReminder, []byte("{not json")))
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
		assert.Equal(t, 0, dispatcher.count())
	})
}

func TestNewSelectsBackendByConfig(t *testing.T) {
	conf := testConf(3, 0)

	conf.Notification.Scheduler = "timer"
	s, err := New(&fakeDispatcher{}, core.NewClock(), conf, testLogger())
	require.NoError(t, err)
	assert.IsType(t, (*TimerScheduler)(nil), s)

	conf.Notification.Scheduler = "bogus"
	_, err = New(&fakeDispatcher{}, core.NewClock(), conf, testLogger())
	require.Error(t, err)
}
