package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL statements used by SQLiteRepository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Record is a row of the records table.
type Record struct {
	ID           string
	OwnerID      string
	Kind         string
	Description  string
	Category     string
	Amount       float64
	InterestRate float64
	DateAdded    string
	CreatedAt    string
	UpdatedAt    string
}

// User is a row of the users table.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

// RecordEvent is a row of the record_events table.
type RecordEvent struct {
	ID         string
	Action     string
	Kind       string
	RecordID   string
	OwnerID    string
	Category   string
	Amount     float64
	OccurredAt string
	ReceivedAt string
}

const recordColumns = `id, owner_id, kind, description, category, amount, interest_rate, date_added, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.OwnerID, &r.Kind, &r.Description, &r.Category,
		&r.Amount, &r.InterestRate, &r.DateAdded, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) listRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecordsByKind = `SELECT ` + recordColumns + ` FROM records WHERE kind = ? ORDER BY rowid`

func (q *Queries) ListRecordsByKind(ctx context.Context, kind string) ([]Record, error) {
	return q.listRecords(ctx, listRecordsByKind, kind)
}

const listRecordsByOwner = `SELECT ` + recordColumns + ` FROM records WHERE kind = ? AND owner_id = ? ORDER BY rowid`

func (q *Queries) ListRecordsByOwner(ctx context.Context, kind, ownerID string) ([]Record, error) {
	return q.listRecords(ctx, listRecordsByOwner, kind, ownerID)
}

const getRecord = `SELECT ` + recordColumns + ` FROM records WHERE kind = ? AND id = ? AND owner_id = ?`

func (q *Queries) GetRecord(ctx context.Context, kind, id, ownerID string) (Record, error) {
	return scanRecord(q.db.QueryRowContext(ctx, getRecord, kind, id, ownerID))
}

const createRecord = `INSERT INTO records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRecord(ctx context.Context, r Record) error {
	_, err := q.db.ExecContext(ctx, createRecord, r.ID, r.OwnerID, r.Kind, r.Description, r.Category,
		r.Amount, r.InterestRate, r.DateAdded, r.CreatedAt, r.UpdatedAt)
	return err
}

const updateRecord = `UPDATE records
SET description = ?, category = ?, amount = ?, interest_rate = ?, updated_at = ?
WHERE kind = ? AND id = ? AND owner_id = ?`

// UpdateRecord returns the number of rows changed.
func (q *Queries) UpdateRecord(ctx context.Context, r Record) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecord, r.Description, r.Category, r.Amount, r.InterestRate,
		r.UpdatedAt, r.Kind, r.ID, r.OwnerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRecord = `DELETE FROM records WHERE kind = ? AND id = ? AND owner_id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, kind, id, ownerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecord, kind, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRecordsByOwner = `DELETE FROM records WHERE owner_id = ?`

func (q *Queries) DeleteRecordsByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecordsByOwner, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const updateUser = `UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUser(ctx context.Context, u User) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUser, u.Name, u.Email, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertRecordEvent ignores duplicates so redelivered messages are harmless.
const insertRecordEvent = `INSERT OR IGNORE INTO record_events
(id, action, kind, record_id, owner_id, category, amount, occurred_at, received_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertRecordEvent returns false when the event was already stored.
func (q *Queries) InsertRecordEvent(ctx context.Context, e RecordEvent) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertRecordEvent, e.ID, e.Action, e.Kind, e.RecordID, e.OwnerID,
		e.Category, e.Amount, e.OccurredAt, e.ReceivedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listRecordEvents = `SELECT id, action, kind, record_id, owner_id, category, amount, occurred_at, received_at
FROM record_events WHERE record_id = ? ORDER BY rowid`

func (q *Queries) ListRecordEvents(ctx context.Context, recordID string) ([]RecordEvent, error) {
	rows, err := q.db.QueryContext(ctx, listRecordEvents, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecordEvent
	for rows.Next() {
		var e RecordEvent
		if err := rows.Scan(&e.ID, &e.Action, &e.Kind, &e.RecordID, &e.OwnerID,
			&e.Category, &e.Amount, &e.OccurredAt, &e.ReceivedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
