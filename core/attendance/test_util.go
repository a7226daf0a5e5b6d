package attendance

import (
	"context"
	"net/mail"
	"sync"

	"github.com/trezcool/mahudhurio/core"
)

// Test doubles shared by this package's tests and the scheduler
// backends' tests.

type TestStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	rosters  map[string][]Recipient
	present  map[string]map[string]struct{}
}

var _ SessionStore = (*TestStore)(nil)

func NewTestStore() *TestStore {
	return &TestStore{
		sessions: make(map[string]Session),
		rosters:  make(map[string][]Recipient),
		present:  make(map[string]map[string]struct{}),
	}
}

func (s *TestStore) PutSession(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	if _, ok := s.present[sess.ID]; !ok {
		s.present[sess.ID] = make(map[string]struct{})
	}
}

func (s *TestStore) Enroll(courseID string, students ...Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[courseID] = append(s.rosters[courseID], students...)
}

func (s *TestStore) MarkPresent(sessionID, studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.present[sessionID]; !ok {
		s.present[sessionID] = make(map[string]struct{})
	}
	s.present[sessionID][studentID] = struct{}{}
}

func (s *TestStore) CloseSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Closed = true
		s.sessions[sessionID] = sess
	}
}

func (s *TestStore) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *TestStore) GetEnrolledStudents(_ context.Context, courseID string) ([]Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Recipient(nil), s.rosters[courseID]...), nil
}

func (s *TestStore) GetPresentStudents(_ context.Context, sessionID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]struct{}, len(s.present[sessionID]))
	for id := range s.present[sessionID] {
		snapshot[id] = struct{}{}
	}
	return snapshot, nil
}

// TestMailTransport records sends; addresses in FailFor error out.
type TestMailTransport struct {
	mu      sync.Mutex
	sent    []core.EmailMessage
	FailFor map[string]error
}

var _ core.MailTransport = (*TestMailTransport)(nil)

func NewTestMailTransport() *TestMailTransport {
	return &TestMailTransport{FailFor: make(map[string]error)}
}

func (t *TestMailTransport) Name() string { return "testmail" }

func (t *TestMailTransport) Send(_ context.Context, to mail.Address, subject, htmlBody, textBody string) error {
	if err, ok := t.FailFor[to.Address]; ok {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, core.EmailMessage{To: to, Subject: subject, TextBody: textBody, HTMLBody: htmlBody})
	return nil
}

func (t *TestMailTransport) Sent() []core.EmailMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.EmailMessage(nil), t.sent...)
}

// TestSMSBackend records sends. Err fails every send; Hang blocks
// until the caller's context expires.
type TestSMSBackend struct {
	BackendName string
	Err         error
	Hang        bool

	mu   sync.Mutex
	sent []SimulatedSend
}

var _ core.SMSBackend = (*TestSMSBackend)(nil)

func (b *TestSMSBackend) Name() string {
	if b.BackendName == "" {
		return "testsms"
	}
	return b.BackendName
}

func (b *TestSMSBackend) Send(ctx context.Context, to, body string) error {
	if b.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if b.Err != nil {
		return b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, SimulatedSend{To: to, Body: body})
	return nil
}

func (b *TestSMSBackend) Sent() []SimulatedSend {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SimulatedSend(nil), b.sent...)
}
