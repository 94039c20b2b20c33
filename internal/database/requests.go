package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turfbook/internal/models"
)

const requestColumns = `id, name, rollno, email, purpose, player_rollnos, player_count,
	slot, date, status, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.BookingRequest, error) {
	var r models.BookingRequest
	err := row.Scan(
		&r.ID, &r.Name, &r.RollNo, &r.Email, &r.Purpose, &r.PlayerRollNos,
		&r.PlayerCount, &r.Slot, &r.Date, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRequest inserts a booking request and its paired slot status record
// in one transaction. The request's ID, status and timestamps are filled in.
func (db *DB) CreateRequest(ctx context.Context, r *models.BookingRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	r.Status = models.StatusPending
	r.CreatedAt = now
	r.UpdatedAt = now

	result, err := tx.ExecContext(ctx, `
		INSERT INTO booking_requests (
			name, rollno, email, purpose, player_rollnos, player_count,
			slot, date, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.RollNo, r.Email, r.Purpose, r.PlayerRollNos, r.PlayerCount,
		r.Slot, r.Date, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	r.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO slot_status (rollno, slot, date, status, requested_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.RollNo, r.Slot, r.Date, r.Status, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert slot status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRequest returns a booking request by id.
func (db *DB) GetRequest(ctx context.Context, id int64) (*models.BookingRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRequests returns all booking requests, newest first.
func (db *DB) ListRequests(ctx context.Context) ([]models.BookingRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM booking_requests ORDER BY created_at DESC`)
}

// ListRequestsByDates returns all booking requests for the given dates,
// used by the read-side availability aggregation.
func (db *DB) ListRequestsByDates(ctx context.Context, dates []string) ([]models.BookingRequest, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	query := `SELECT ` + requestColumns + ` FROM booking_requests WHERE date IN (?`
	args := []any{dates[0]}
	for _, d := range dates[1:] {
		query += `, ?`
		args = append(args, d)
	}
	query += `) ORDER BY created_at ASC`
	return db.queryRequests(ctx, query, args...)
}

// ListPending returns pending requests for a (slot, date) pair in FIFO order.
func (db *DB) ListPending(ctx context.Context, slot int, date string) ([]models.BookingRequest, error) {
	return db.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM booking_requests
		WHERE slot = ? AND date = ? AND status = ?
		ORDER BY created_at ASC`,
		slot, date, models.StatusPending)
}

// CountEarlierPending counts pending requests for (slot, date) created
// strictly before the given time.
func (db *DB) CountEarlierPending(ctx context.Context, slot int, date string, before time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM booking_requests
		WHERE slot = ? AND date = ? AND status = ? AND created_at < ?`,
		slot, date, models.StatusPending, before,
	).Scan(&n)
	return n, err
}

// AcceptRequest transitions the target request to accepted and every other
// pending request for the same (slot, date) to declined, updating both the
// authoritative rows and their paired slot status records inside a single
// transaction. No partial cascade is ever visible. Returns the updated
// request and the set of auto-declined competitors.
func (db *DB) AcceptRequest(ctx context.Context, id int64) (*models.BookingRequest, []models.BookingRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	target, err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	// Collect the competitors before mutating so the caller can notify them.
	rows, err := tx.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM booking_requests
		WHERE slot = ? AND date = ? AND status = ? AND id != ?
		ORDER BY created_at ASC`,
		target.Slot, target.Date, models.StatusPending, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list competitors: %w", err)
	}
	declined, err := collectRequests(rows)
	if err != nil {
		return nil, nil, err
	}

	if err := transitionInTx(ctx, tx, target, models.StatusAccepted, now); err != nil {
		return nil, nil, err
	}

	// Cascade: every remaining pending competitor loses.
	if _, err := tx.ExecContext(ctx, `
		UPDATE booking_requests SET status = ?, updated_at = ?
		WHERE slot = ? AND date = ? AND status = ? AND id != ?`,
		models.StatusDeclined, now, target.Slot, target.Date, models.StatusPending, id,
	); err != nil {
		return nil, nil, fmt.Errorf("cascade decline requests: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE slot_status SET status = ?
		WHERE slot = ? AND date = ? AND status = ?`,
		models.StatusDeclined, target.Slot, target.Date, models.StatusPending,
	); err != nil {
		return nil, nil, fmt.Errorf("cascade decline slot status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	target.Status = models.StatusAccepted
	target.UpdatedAt = now
	for i := range declined {
		declined[i].Status = models.StatusDeclined
		declined[i].UpdatedAt = now
	}
	return target, declined, nil
}

// DeclineRequest transitions a request to declined, updating its paired slot
// status record in the same transaction.
func (db *DB) DeclineRequest(ctx context.Context, id int64) (*models.BookingRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	target, err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := transitionInTx(ctx, tx, target, models.StatusDeclined, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	target.Status = models.StatusDeclined
	target.UpdatedAt = now
	return target, nil
}

// transitionInTx updates the target request and its paired status record.
func transitionInTx(ctx context.Context, tx *sql.Tx, target *models.BookingRequest, status string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE booking_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, target.ID,
	); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE slot_status SET status = ? WHERE rollno = ? AND slot = ?`,
		status, target.RollNo, target.Slot,
	); err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	return nil
}

// DeleteRequest removes a booking request and its paired slot status record.
func (db *DB) DeleteRequest(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	target, err := scanRequest(tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM slot_status WHERE rollno = ? AND slot = ?`,
		target.RollNo, target.Slot,
	); err != nil {
		return fmt.Errorf("delete slot status: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM booking_requests WHERE id = ?`, target.ID,
	); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	return tx.Commit()
}

// ListSlotStatuses returns all denormalized slot status records, newest first.
func (db *DB) ListSlotStatuses(ctx context.Context) ([]models.SlotStatusRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, rollno, slot, date, status, requested_at
		FROM slot_status ORDER BY requested_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SlotStatusRecord
	for rows.Next() {
		var s models.SlotStatusRecord
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Slot, &s.Date, &s.Status, &s.RequestedAt); err != nil {
			return nil, err
		}
		records = append(records, s)
	}
	return records, rows.Err()
}

// AcceptedHolder returns the accepted slot status record for (slot, date),
// or ErrNotFound if the slot has no accepted holder.
func (db *DB) AcceptedHolder(ctx context.Context, slot int, date string) (*models.SlotStatusRecord, error) {
	var s models.SlotStatusRecord
	err := db.QueryRowContext(ctx, `
		SELECT id, rollno, slot, date, status, requested_at
		FROM slot_status WHERE slot = ? AND date = ? AND status = ?`,
		slot, date, models.StatusAccepted,
	).Scan(&s.ID, &s.RollNo, &s.Slot, &s.Date, &s.Status, &s.RequestedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]models.BookingRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]models.BookingRequest, error) {
	defer rows.Close()

	var requests []models.BookingRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}
