package attendance

import (
	"strings"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

func diff(got, want string) string {
	d, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  1,
	})
	return d
}

func TestComposerCompose(t *testing.T) {
	createdAt := time.Date(2021, 3, 8, 9, 30, 0, 0, time.UTC)
	sess := Session{
		ID:        "a1",
		Course:    Course{ID: "c1", Name: "Distributed Systems", Code: "CS404"},
		CreatedAt: createdAt,
		Validity:  4 * time.Hour,
		Token:     "XK42P",
	}
	composer := NewComposer(15 * time.Minute)

	tests := []struct {
		name        string
		evt         Event
		ch          Channel
		wantSubject string
		wantBody    string
		wantErr     bool
	}{
		{
			name:        "started email",
			evt:         Event{Kind: EventStarted, Session: sess, Token: "XK42P"},
			ch:          ChannelEmail,
			wantSubject: "Attendance Session Started - Distributed Systems",
			wantBody:    "Attendance session started for Distributed Systems (CS404). Token: XK42P",
		},
		{
			name:     "started sms",
			evt:      Event{Kind: EventStarted, Session: sess, Token: "XK42P"},
			ch:       ChannelSMS,
			wantBody: "Attendance session started for CS404. Token: XK42P",
		},
		{
			name:        "expiring email states the expiry time",
			evt:         Event{Kind: EventExpiring, Session: sess, Token: "XK42P"},
			ch:          ChannelEmail,
			wantSubject: "Attendance Session Expiring Soon - Distributed Systems",
			wantBody:    "Attendance session for CS404 expires in 15 minutes (at 13:30:00). Token: XK42P",
		},
		{
			name:     "expiring sms",
			evt:      Event{Kind: EventExpiring, Session: sess, Token: "XK42P"},
			ch:       ChannelSMS,
			wantBody: "Attendance for CS404 expires in 15 minutes. Token: XK42P",
		},
		{
			name:        "missed email",
			evt:         Event{Kind: EventMissed, Session: sess},
			ch:          ChannelEmail,
			wantSubject: "You Missed Attendance - Distributed Systems",
			wantBody:    "You missed the attendance session for CS404 on 2021-03-08",
		},
		{
			name:     "missed sms",
			evt:      Event{Kind: EventMissed, Session: sess},
			ch:       ChannelSMS,
			wantBody: "You missed the attendance session for CS404 on 2021-03-08",
		},
		{
			name:    "unknown channel",
			evt:     Event{Kind: EventStarted, Session: sess},
			ch:      Channel("carrier-pigeon"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := composer.Compose(tt.evt, alice, tt.ch)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Compose() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Compose() failed: %v", err)
			}
			if content.Subject != tt.wantSubject {
				t.Errorf("Compose() subject = %q, want %q", content.Subject, tt.wantSubject)
			}
			if content.TextBody != tt.wantBody {
				t.Errorf("Compose() body mismatch:\n%s", diff(content.TextBody, tt.wantBody))
			}
			if tt.ch == ChannelSMS && content.Subject != "" {
				t.Errorf("Compose() SMS content must not carry a subject, got %q", content.Subject)
			}
		})
	}
}

// The stated expiry time and the reminder deadline must come from the
// same constant: ExpiresAt.
func TestComposerExpiryMatchesSchedulingDeadline(t *testing.T) {
	sess := Session{
		Course:    Course{Name: "Algebra", Code: "MATH201"},
		CreatedAt: time.Date(2021, 3, 8, 8, 0, 0, 0, time.UTC),
		Validity:  90 * time.Minute, // variable validity, not the fixed default
	}
	composer := NewComposer(15 * time.Minute)

	content, err := composer.Compose(Event{Kind: EventExpiring, Session: sess, Token: "T"}, alice, ChannelEmail)
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}
	wantStamp := sess.ExpiresAt().Format("15:04:05") // 09:30:00
	if want := "(at " + wantStamp + ")"; !strings.Contains(content.TextBody, want) {
		t.Errorf("Compose() body %q does not state expiry %q", content.TextBody, want)
	}
}
