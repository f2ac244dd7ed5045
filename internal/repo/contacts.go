package repo

import (
	"context"
	"database/sql"
	"errors"
)

type Contact struct {
	ID        string
	FirstName string
	LastName  string
}

// ContactDirectory looks up contacts by any known form of their mobile
// number. It belongs to the host application; this package only ships the
// Postgres-backed implementation used in deployments.
type ContactDirectory interface {
	FindByMobile(ctx context.Context, variants []string) (*Contact, error)
}

type PostgresContactDirectory struct {
	db *sql.DB
}

func NewPostgresContactDirectory(db *sql.DB) *PostgresContactDirectory {
	return &PostgresContactDirectory{db: db}
}

func (d *PostgresContactDirectory) FindByMobile(ctx context.Context, variants []string) (*Contact, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name
		FROM contacts
		WHERE mobile_no = ANY($1)
		LIMIT 1
	`, variants)

	var c Contact
	var firstName, lastName sql.NullString
	if err := row.Scan(&c.ID, &firstName, &lastName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	c.FirstName = firstName.String
	c.LastName = lastName.String
	return &c, nil
}
