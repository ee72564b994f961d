package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/callerid/internal/apperr"
)

// Insert stores a new contact and returns its assigned id. The phone number is
// persisted exactly as given.
func (db *DB) Insert(ctx context.Context, name, phoneNumber, notes string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO contacts (name, phoneNumber, notes) VALUES (?, ?, ?)`,
		name, phoneNumber, notes)
	if err != nil {
		return 0, fmt.Errorf("contact: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("contact: last insert id: %w", err)
	}
	return id, nil
}

// GetByNumber returns the contact whose phoneNumber equals number exactly.
// When several contacts share the number the one with the lowest id wins.
// It returns apperr.ErrNotFound when nothing matches.
func (db *DB) GetByNumber(ctx context.Context, number string) (*Contact, error) {
	var c Contact
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, phoneNumber, notes
		FROM contacts
		WHERE phoneNumber = ?
		ORDER BY id ASC
		LIMIT 1
	`, number).Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contact: get by number: %w", err)
	}
	return &c, nil
}

// All returns every contact ordered by id.
func (db *DB) All(ctx context.Context) ([]Contact, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, phoneNumber, notes FROM contacts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("contact: all: %w", err)
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Notes); err != nil {
			return nil, fmt.Errorf("contact: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of stored contacts.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("contact: count: %w", err)
	}
	return n, nil
}
