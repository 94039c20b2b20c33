package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"turfbook/internal/models"
)

// AddBan blocks an identity from submitting requests.
func (db *DB) AddBan(ctx context.Context, rollno, reason string) (*models.BanEntry, error) {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO bans (rollno, reason, created_at) VALUES (?, ?, ?)`,
		rollno, reason, now,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, ErrAlreadyBanned
		}
		return nil, fmt.Errorf("insert ban: %w", err)
	}
	return &models.BanEntry{RollNo: rollno, Reason: reason, CreatedAt: now}, nil
}

// IsBanned checks whether an identity is on the ban list.
func (db *DB) IsBanned(ctx context.Context, rollno string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM bans WHERE rollno = ?`, rollno,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveBan lifts a ban. Returns ErrNotFound if the identity was not banned.
func (db *DB) RemoveBan(ctx context.Context, rollno string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bans WHERE rollno = ?`, rollno)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBans returns all ban entries, newest first.
func (db *DB) ListBans(ctx context.Context) ([]models.BanEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rollno, reason, created_at FROM bans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bans []models.BanEntry
	for rows.Next() {
		var b models.BanEntry
		if err := rows.Scan(&b.RollNo, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		bans = append(bans, b)
	}
	return bans, rows.Err()
}
