package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// sessionStore is the read-only view over the surrounding web app's
// Postgres schema. It never writes: session lifecycle and check-ins
// belong to the app.
type sessionStore struct {
	db              *sqlx.DB
	defaultValidity time.Duration
}

var _ attendance.SessionStore = (*sessionStore)(nil)

func NewSessionStore(db *sqlx.DB, defaultValidity time.Duration) *sessionStore {
	return &sessionStore{db: db, defaultValidity: defaultValidity}
}

type sessionRow struct {
	ID           string        `db:"id"`
	CourseID     string        `db:"course_id"`
	CourseName   string        `db:"course_name"`
	CourseCode   string        `db:"course_code"`
	CreatedAt    time.Time     `db:"created_at"`
	ValiditySecs sql.NullInt64 `db:"validity_secs"`
	Token        string        `db:"token"`
	Closed       bool          `db:"closed"`
}

type recipientRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Email      string         `db:"email"`
	Phone      sql.NullString `db:"phone_number"`
	EmailOptIn bool           `db:"email_opt_in"`
	SMSOptIn   bool           `db:"sms_opt_in"`
}

func (store *sessionStore) GetSession(ctx context.Context, id string) (attendance.Session, error) {
	const q = `
		SELECT s.id, s.course_id, c.name AS course_name, c.code AS course_code,
		       s.created_at, s.validity_secs, s.token, s.closed
		FROM attendance_session s
		JOIN course c ON c.id = s.course_id
		WHERE s.id = $1`

	var row sessionRow
	if err := store.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, errors.Wrap(err, "querying session")
	}

	validity := store.defaultValidity
	if row.ValiditySecs.Valid {
		validity = time.Duration(row.ValiditySecs.Int64) * time.Second
	}
	return attendance.Session{
		ID:        row.ID,
		Course:    attendance.Course{ID: row.CourseID, Name: row.CourseName, Code: row.CourseCode},
		CreatedAt: row.CreatedAt,
		Validity:  validity,
		Token:     row.Token,
		Closed:    row.Closed,
	}, nil
}

func (store *sessionStore) GetEnrolledStudents(ctx context.Context, courseID string) ([]attendance.Recipient, error) {
	const q = `
		SELECT st.id, st.name, st.email, st.phone_number, st.email_opt_in, st.sms_opt_in
		FROM student st
		JOIN enrollment e ON e.student_id = st.id
		WHERE e.course_id = $1
		ORDER BY st.name, st.id`

	var rows []recipientRow
	if err := store.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}

	students := make([]attendance.Recipient, 0, len(rows))
	for _, row := range rows {
		students = append(students, attendance.Recipient{
			ID:         row.ID,
			Name:       row.Name,
			Email:      row.Email,
			Phone:      row.Phone.String,
			EmailOptIn: row.EmailOptIn,
			SMSOptIn:   row.SMSOptIn,
		})
	}
	return students, nil
}

func (store *sessionStore) GetPresentStudents(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	const q = `SELECT student_id FROM attendance_checkin WHERE session_id = $1`

	var ids []string
	if err := store.db.SelectContext(ctx, &ids, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "querying check-ins")
	}

	present := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}
	return present, nil
}
