package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"wealth/internal/core"
	"wealth/internal/log"
)

// SQLiteRepository stores records, users and the record event audit trail.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchAll returns every record of kind across all owners, in creation order.
func (r *SQLiteRepository) FetchAll(ctx context.Context, kind core.RecordKind) ([]core.Record, error) {
	rows, err := r.queries.ListRecordsByKind(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}
	return toCoreRecords(rows)
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, kind core.RecordKind, ownerID string) ([]core.Record, error) {
	rows, err := r.queries.ListRecordsByOwner(ctx, string(kind), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s for owner: %w", kind.Plural(), err)
	}
	return toCoreRecords(rows)
}

func (r *SQLiteRepository) GetByOwner(ctx context.Context, kind core.RecordKind, id, ownerID string) (core.Record, error) {
	row, err := r.queries.GetRecord(ctx, string(kind), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s: %w", kind, err)
	}
	return toCoreRecord(row)
}

// CreateRecord assigns an ID and timestamps when they are unset.
func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	now := r.now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.DateAdded.IsZero() {
		rec.DateAdded = now
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := r.queries.CreateRecord(ctx, fromCoreRecord(rec)); err != nil {
		return core.Record{}, fmt.Errorf("create %s: %w", rec.Kind, err)
	}

	r.logger.InfoContext(ctx, "Record saved to SQLite",
		log.FieldKind, string(rec.Kind),
		log.FieldRecordID, rec.ID,
		log.FieldUserID, rec.OwnerID,
		log.FieldAmount, rec.Amount,
	)
	return rec, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	rec.UpdatedAt = r.now().UTC()
	n, err := r.queries.UpdateRecord(ctx, fromCoreRecord(rec))
	if err != nil {
		return core.Record{}, fmt.Errorf("update %s: %w", rec.Kind, err)
	}
	if n == 0 {
		return core.Record{}, core.ErrNotFound
	}
	return r.GetByOwner(ctx, rec.Kind, rec.ID, rec.OwnerID)
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, kind core.RecordKind, id, ownerID string) error {
	n, err := r.queries.DeleteRecord(ctx, string(kind), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = core.NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := r.queries.CreateUser(ctx, fromCoreUser(u)); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return toCoreUser(row)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return toCoreUser(row)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	u.UpdatedAt = r.now().UTC()
	n, err := r.queries.UpdateUser(ctx, fromCoreUser(u))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return core.User{}, core.ErrNotFound
	}
	return r.GetUserByID(ctx, u.ID)
}

// DeleteUser removes the user and every record they own in one transaction.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	removed, err := q.DeleteRecordsByOwner(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user records: %w", err)
	}
	n, err := q.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "User deleted", log.FieldUserID, id, "records_removed", removed)
	return nil
}

// SaveRecordEvent appends ev to the audit trail. It returns false when an
// event with the same ID was already stored.
func (r *SQLiteRepository) SaveRecordEvent(ctx context.Context, ev core.RecordEvent) (bool, error) {
	inserted, err := r.queries.InsertRecordEvent(ctx, RecordEvent{
		ID:         ev.ID,
		Action:     string(ev.Action),
		Kind:       string(ev.Kind),
		RecordID:   ev.RecordID,
		OwnerID:    ev.OwnerID,
		Category:   ev.Category,
		Amount:     ev.Amount,
		OccurredAt: formatTime(ev.Timestamp),
		ReceivedAt: formatTime(r.now()),
	})
	if err != nil {
		return false, fmt.Errorf("insert record event: %w", err)
	}
	return inserted, nil
}

// RecordEvents returns the audit trail of one record, oldest first.
func (r *SQLiteRepository) RecordEvents(ctx context.Context, recordID string) ([]core.RecordEvent, error) {
	rows, err := r.queries.ListRecordEvents(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("list record events: %w", err)
	}
	out := make([]core.RecordEvent, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTime(row.OccurredAt)
		if err != nil {
			return nil, err
		}
		out = append(out, core.RecordEvent{
			ID:        row.ID,
			Action:    core.EventAction(row.Action),
			Kind:      core.RecordKind(row.Kind),
			RecordID:  row.RecordID,
			OwnerID:   row.OwnerID,
			Category:  row.Category,
			Amount:    row.Amount,
			Timestamp: ts,
		})
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Extended codes disabled on this connection.
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

func fromCoreRecord(r core.Record) Record {
	return Record{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Kind:         string(r.Kind),
		Description:  r.Description,
		Category:     r.Category,
		Amount:       r.Amount,
		InterestRate: r.InterestRate,
		DateAdded:    formatTime(r.DateAdded),
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}

func toCoreRecord(row Record) (core.Record, error) {
	dateAdded, err := parseTime(row.DateAdded)
	if err != nil {
		return core.Record{}, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Record{}, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Kind:         core.RecordKind(row.Kind),
		Description:  row.Description,
		Category:     row.Category,
		Amount:       row.Amount,
		InterestRate: row.InterestRate,
		DateAdded:    dateAdded,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func toCoreRecords(rows []Record) ([]core.Record, error) {
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toCoreRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func fromCoreUser(u core.User) User {
	return User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
}

func toCoreUser(row User) (core.User, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.User{}, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.User{}, err
	}
	return core.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
