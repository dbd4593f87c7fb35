package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/contentpro/ideagate/domain/entitlement"
	"github.com/contentpro/ideagate/ports"
)

// dateFormat is how last_reset_date is stored.
const dateFormat = "2006-01-02"

// UserStore implements ports.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Get retrieves a record by user ID.
func (s *UserStore) Get(ctx context.Context, userID string) (entitlement.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, free_used_today, last_reset_date, is_paid, paid_until, created_at, updated_at
		FROM users
		WHERE user_id = ?
	`, userID)
	return scanUser(row)
}

// Create stores a new record.
func (s *UserStore) Create(ctx context.Context, rec entitlement.UserRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, free_used_today, last_reset_date, is_paid, paid_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.FreeUsedToday, rec.LastResetDate.Format(dateFormat),
		boolToInt(rec.IsPaid), nullTime(rec.PaidUntil), rec.CreatedAt, rec.UpdatedAt)

	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update replaces an existing record.
func (s *UserStore) Update(ctx context.Context, rec entitlement.UserRecord) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET free_used_today = ?, last_reset_date = ?, is_paid = ?, paid_until = ?, updated_at = ?
		WHERE user_id = ?
	`, rec.FreeUsedToday, rec.LastResetDate.Format(dateFormat),
		boolToInt(rec.IsPaid), nullTime(rec.PaidUntil), rec.UpdatedAt, rec.UserID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns records with pagination, ordered by user ID.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]entitlement.UserRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, free_used_today, last_reset_date, is_paid, paid_until, created_at, updated_at
		FROM users
		ORDER BY user_id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entitlement.UserRecord
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the total number of records.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (entitlement.UserRecord, error) {
	var (
		rec       entitlement.UserRecord
		lastReset string
		isPaid    int
		paidUntil sql.NullTime
	)

	err := row.Scan(&rec.UserID, &rec.FreeUsedToday, &lastReset, &isPaid,
		&paidUntil, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entitlement.UserRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return entitlement.UserRecord{}, err
	}

	rec.LastResetDate, err = time.ParseInLocation(dateFormat, lastReset, time.UTC)
	if err != nil {
		return entitlement.UserRecord{}, fmt.Errorf("bad last_reset_date for user %s: %w", rec.UserID, err)
	}
	rec.IsPaid = isPaid != 0
	if paidUntil.Valid {
		t := paidUntil.Time
		rec.PaidUntil = &t
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
