package dummydb

import (
	"context"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type sessionStore struct {
	db *attendanceTable
}

var _ attendance.SessionStore = (*sessionStore)(nil) // interface compliance check

func NewSessionStore(db *DB) *sessionStore {
	return &sessionStore{db: db.att}
}

func (store *sessionStore) GetSession(_ context.Context, id string) (attendance.Session, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if sess, ok := store.db.sessions[id]; ok {
		return *sess, nil
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (store *sessionStore) GetEnrolledStudents(_ context.Context, courseID string) ([]attendance.Recipient, error) {
	store.db.RLock()
	defer store.db.RUnlock()
	return append([]attendance.Recipient(nil), store.db.enrollments[courseID]...), nil
}

func (store *sessionStore) GetPresentStudents(_ context.Context, sessionID string) (map[string]struct{}, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	snapshot := make(map[string]struct{}, len(store.db.present[sessionID]))
	for id := range store.db.present[sessionID] {
		snapshot[id] = struct{}{}
	}
	return snapshot, nil
}

// Lifecycle mutators for embedding apps and tests; the engine itself
// never writes through the store.

func (store *sessionStore) PutSession(sess attendance.Session) {
	store.db.Lock()
	defer store.db.Unlock()

	store.db.sessions[sess.ID] = &sess
	if _, ok := store.db.present[sess.ID]; !ok {
		store.db.present[sess.ID] = make(map[string]struct{})
	}
}

func (store *sessionStore) Enroll(courseID string, students ...attendance.Recipient) {
	store.db.Lock()
	defer store.db.Unlock()
	store.db.enrollments[courseID] = append(store.db.enrollments[courseID], students...)
}

func (store *sessionStore) MarkPresent(sessionID, studentID string) {
	store.db.Lock()
	defer store.db.Unlock()

	if _, ok := store.db.present[sessionID]; !ok {
		store.db.present[sessionID] = make(map[string]struct{})
	}
	store.db.present[sessionID][studentID] = struct{}{}
}

func (store *sessionStore) CloseSession(sessionID string) {
	store.db.Lock()
	defer store.db.Unlock()

	if sess, ok := store.db.sessions[sessionID]; ok {
		sess.Closed = true
	}
}
