package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
)

func newTestNotifier(t *testing.T, smsBackends ...core.SMSBackend) (*Notifier, *TestStore, *TestMailTransport) {
	t.Helper()
	store := NewTestStore()
	mailT := NewTestMailTransport()
	provider := NewProvider(mailT, smsBackends, 0, testLogger())
	notifier := NewNotifier(store, provider, NewComposer(15*time.Minute), testLogger())
	return notifier, store, mailT
}

func seedSession(store *TestStore, students ...Recipient) Session {
	sess := Session{
		ID:        "a1",
		Course:    Course{ID: "c1", Name: "Distributed Systems", Code: "CS404"},
		CreatedAt: time.Date(2021, 3, 8, 9, 30, 0, 0, time.UTC),
		Validity:  4 * time.Hour,
		Token:     "XK42P",
	}
	store.PutSession(sess)
	store.Enroll(sess.Course.ID, students...)
	return sess
}

// 3 enrolled students, one of them with no eligible channel: Started
// must attempt exactly the other students' channels.
func TestNotifierStartedAttemptsEligibleChannelsOnly(t *testing.T) {
	sms := &TestSMSBackend{}
	notifier, store, mailT := newTestNotifier(t, sms)
	seedSession(store, alice, bob, carol)

	rep, err := notifier.Notify(context.Background(), EventStarted, "a1", "XK42P")
	require.NoError(t, err)

	assert.Len(t, rep.Attempts, 3) // alice email+sms, bob email
	assert.Equal(t, 3, rep.Sent())
	assert.Equal(t, 0, rep.Failed())
	assert.Len(t, mailT.Sent(), 2)
	assert.Len(t, sms.Sent(), 1)
}

// One recipient's failure never aborts delivery to the rest.
func TestNotifierIsolatesRecipientFailures(t *testing.T) {
	notifier, store, mailT := newTestNotifier(t)
	dan := Recipient{ID: "s4", Name: "Dan", Email: "dan@test.test", EmailOptIn: true}
	eve := Recipient{ID: "s5", Name: "Eve", Email: "eve@test.test", EmailOptIn: true}
	seedSession(store, bob, dan, eve)
	mailT.FailFor["dan@test.test"] = errors.New("mailbox unavailable")

	rep, err := notifier.Notify(context.Background(), EventStarted, "a1", "XK42P")
	require.NoError(t, err)

	assert.Len(t, rep.Attempts, 3)
	assert.Equal(t, 2, rep.Sent())
	assert.Equal(t, 1, rep.Failed())
	assert.Len(t, mailT.Sent(), 2)
	for _, att := range rep.Attempts {
		if att.Recipient.ID == "s4" {
			assert.Error(t, att.Err)
		} else {
			assert.NoError(t, att.Err)
		}
	}
}

// Stored addresses arrive messy; what hits the providers is trimmed,
// and emails lowercased.
func TestNotifierNormalizesAddresses(t *testing.T) {
	sms := &TestSMSBackend{}
	notifier, store, mailT := newTestNotifier(t, sms)
	messy := Recipient{
		ID: "s9", Name: "Messy",
		Email: "  Messy@Test.Test ", EmailOptIn: true,
		Phone: " +243811111111\n", SMSOptIn: true,
	}
	seedSession(store, messy)

	_, err := notifier.Notify(context.Background(), EventStarted, "a1", "XK42P")
	require.NoError(t, err)

	require.Len(t, mailT.Sent(), 1)
	assert.Equal(t, "messy@test.test", mailT.Sent()[0].To.Address)
	require.Len(t, sms.Sent(), 1)
	assert.Equal(t, "+243811111111", sms.Sent()[0].To)
}

func TestNotifierMissedGoesToAbsentStudents(t *testing.T) {
	notifier, store, mailT := newTestNotifier(t)
	seedSession(store, alice, bob)
	store.MarkPresent("a1", alice.ID)
	store.CloseSession("a1")

	rep, err := notifier.Notify(context.Background(), EventMissed, "a1", "")
	require.NoError(t, err)

	require.Len(t, mailT.Sent(), 1)
	assert.Equal(t, bob.Email, mailT.Sent()[0].To.Address)
	assert.Equal(t, 1, rep.Sent())
}

func TestNotifierDeliverExpiring(t *testing.T) {
	t.Run("fresh present set read at fire time", func(t *testing.T) {
		notifier, store, mailT := newTestNotifier(t)
		seedSession(store, alice, bob)
		store.MarkPresent("a1", bob.ID) // checked in after the reminder was armed

		err := notifier.DeliverExpiring(context.Background(), "a1", "XK42P")
		require.NoError(t, err)

		sent := mailT.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, alice.Email, sent[0].To.Address)
	})

	t.Run("closed session is done, not an error", func(t *testing.T) {
		notifier, store, mailT := newTestNotifier(t)
		seedSession(store, alice)
		store.CloseSession("a1")

		err := notifier.DeliverExpiring(context.Background(), "a1", "XK42P")
		require.NoError(t, err)
		assert.Empty(t, mailT.Sent())
	})

	t.Run("unknown session is dropped", func(t *testing.T) {
		notifier, _, _ := newTestNotifier(t)
		assert.NoError(t, notifier.DeliverExpiring(context.Background(), "nope", "XK42P"))
	})

	t.Run("any failed attempt fails the batch", func(t *testing.T) {
		notifier, store, mailT := newTestNotifier(t)
		seedSession(store, alice, bob)
		mailT.FailFor[bob.Email] = errors.New("mailbox unavailable")

		err := notifier.DeliverExpiring(context.Background(), "a1", "XK42P")
		require.Error(t, err)
		// alice was still attempted
		require.Len(t, mailT.Sent(), 1)
		assert.Equal(t, alice.Email, mailT.Sent()[0].To.Address)
	})
}
