package attendance

import "time"

// Channels
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Channel string

// Event kinds
const (
	EventStarted EventKind = iota
	EventExpiring
	EventMissed
)

type EventKind int

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventExpiring:
		return "expiring"
	case EventMissed:
		return "missed"
	}
	return "unknown"
}

type (
	Course struct {
		ID   string
		Name string
		Code string
	}

	// Session is one attendance-collection window. It is created open,
	// mutated by check-ins and frozen once closed.
	Session struct {
		ID        string
		Course    Course
		CreatedAt time.Time
		Validity  time.Duration
		Token     string
		Closed    bool
	}

	// Recipient is a student eligible for notification.
	Recipient struct {
		ID         string
		Name       string
		Email      string
		Phone      string
		EmailOptIn bool
		SMSOptIn   bool
	}

	// Event is one lifecycle notification trigger. Immutable once built.
	Event struct {
		Kind    EventKind
		Session Session
		Token   string
	}

	// Selection is one recipient with the channels they will be reached on.
	Selection struct {
		Recipient Recipient
		Channels  []Channel
	}

	// DeliveryAttempt is the outcome of one (recipient, channel) send.
	DeliveryAttempt struct {
		Recipient Recipient
		Channel   Channel
		Err       error
	}

	// BatchReport aggregates the attempts of one notification batch.
	BatchReport struct {
		Event    Event
		Attempts []DeliveryAttempt
	}
)

// ExpiresAt is the single source of the session deadline: both the
// composed expiry timestamp and the reminder fire time derive from it.
func (s Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.Validity)
}

// NotifyChannels returns the channels this recipient has opted into.
// SMS additionally requires a phone number on file.
func (r Recipient) NotifyChannels() []Channel {
	chs := make([]Channel, 0, 2)
	if r.EmailOptIn {
		chs = append(chs, ChannelEmail)
	}
	if r.SMSOptIn && r.Phone != "" {
		chs = append(chs, ChannelSMS)
	}
	return chs
}

func (a DeliveryAttempt) OK() bool { return a.Err == nil }

func (r BatchReport) Sent() int {
	var n int
	for _, a := range r.Attempts {
		if a.OK() {
			n++
		}
	}
	return n
}

func (r BatchReport) Failed() int { return len(r.Attempts) - r.Sent() }
