package attendance

import (
	"fmt"
	"time"
)

// Content is one composed message. Subject applies to email only.
type Content struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Composer builds channel-specific message content per event kind.
// Deterministic: same event, same content.
type Composer struct {
	leadTime time.Duration
}

func NewComposer(leadTime time.Duration) Composer {
	return Composer{leadTime: leadTime}
}

// Compose renders the message for one recipient and channel. The
// expiry time stated in Expiring messages comes from Session.ExpiresAt,
// the same deadline the reminder is scheduled against.
func (c Composer) Compose(evt Event, rcp Recipient, ch Channel) (Content, error) {
	course := evt.Session.Course
	leadMins := int(c.leadTime.Minutes())

	switch {
	case evt.Kind == EventStarted && ch == ChannelEmail:
		return Content{
			Subject:  fmt.Sprintf("Attendance Session Started - %s", course.Name),
			TextBody: fmt.Sprintf("Attendance session started for %s (%s). Token: %s", course.Name, course.Code, evt.Token),
		}, nil
	case evt.Kind == EventStarted && ch == ChannelSMS:
		return Content{
			TextBody: fmt.Sprintf("Attendance session started for %s. Token: %s", course.Code, evt.Token),
		}, nil

	case evt.Kind == EventExpiring && ch == ChannelEmail:
		expiresAt := evt.Session.ExpiresAt()
		return Content{
			Subject: fmt.Sprintf("Attendance Session Expiring Soon - %s", course.Name),
			TextBody: fmt.Sprintf("Attendance session for %s expires in %d minutes (at %s). Token: %s",
				course.Code, leadMins, expiresAt.Format("15:04:05"), evt.Token),
		}, nil
	case evt.Kind == EventExpiring && ch == ChannelSMS:
		return Content{
			TextBody: fmt.Sprintf("Attendance for %s expires in %d minutes. Token: %s", course.Code, leadMins, evt.Token),
		}, nil

	case evt.Kind == EventMissed && ch == ChannelEmail:
		return Content{
			Subject:  fmt.Sprintf("You Missed Attendance - %s", course.Name),
			TextBody: fmt.Sprintf("You missed the attendance session for %s on %s", course.Code, evt.Session.CreatedAt.Format("2006-01-02")),
		}, nil
	case evt.Kind == EventMissed && ch == ChannelSMS:
		return Content{
			TextBody: fmt.Sprintf("You missed the attendance session for %s on %s", course.Code, evt.Session.CreatedAt.Format("2006-01-02")),
		}, nil
	}
	return Content{}, fmt.Errorf("no template for event %q on channel %q", evt.Kind, ch)
}
