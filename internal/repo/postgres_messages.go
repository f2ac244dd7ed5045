package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Vonnie2507/sms-inbox/internal/model"
)

type PostgresMessageRepo struct {
	db *sql.DB
}

func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (r *PostgresMessageRepo) Append(ctx context.Context, m model.Message) (string, error) {
	if m.PhoneNumber == "" {
		return "", errors.New("phone number must not be empty")
	}

	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	sentAt := m.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sms_messages
			(id, direction, phone_number, body, status, provider_message_id,
			 linked_doctype, linked_name, contact_name, sent_by, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		id,
		string(m.Direction),
		m.PhoneNumber,
		m.Body,
		string(m.Status),
		m.ProviderMessageID,
		m.LinkedType,
		m.LinkedID,
		m.ContactName,
		m.SentBy,
		sentAt,
		m.Read,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresMessageRepo) UpdateStatus(ctx context.Context, id string, status model.Status, providerMessageID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET status = $2,
		    provider_message_id = $3
		WHERE id = $1
	`, id, string(status), providerMessageID)
	return err
}

func (r *PostgresMessageRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET status = 'Failed',
		    last_error = $2
		WHERE id = $1
	`, id, reason)
	return err
}

func (r *PostgresMessageRepo) ListByPhone(ctx context.Context, phone string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, direction, phone_number, body, status, provider_message_id,
		       linked_doctype, linked_name, contact_name, sent_by, sent_at, read, last_error
		FROM sms_messages
		WHERE phone_number = $1
		ORDER BY sent_at ASC, seq ASC
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListConversations picks the latest message per phone number via DISTINCT ON
// with a correlated unread count. Ties on sent_at break on insertion order
// (the seq column).
func (r *PostgresMessageRepo) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT phone_number, contact_name, body, direction, sent_at,
		       linked_doctype, linked_name, unread_count
		FROM (
			SELECT DISTINCT ON (phone_number)
			       phone_number, contact_name, body, direction, sent_at,
			       linked_doctype, linked_name,
			       (SELECT COUNT(*) FROM sms_messages s2
			        WHERE s2.phone_number = s1.phone_number
			          AND s2.direction = 'Inbound'
			          AND NOT s2.read) AS unread_count
			FROM sms_messages s1
			ORDER BY phone_number, sent_at DESC, seq DESC
		) latest
		ORDER BY sent_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		var direction string
		var contactName, linkedType, linkedID sql.NullString

		if err := rows.Scan(
			&c.PhoneNumber,
			&contactName,
			&c.LastMessage,
			&direction,
			&c.LastMessageAt,
			&linkedType,
			&linkedID,
			&c.UnreadCount,
		); err != nil {
			return nil, err
		}

		c.LastDirection = model.Direction(direction)
		c.ContactName = nullableString(contactName)
		c.LinkedType = nullableString(linkedType)
		c.LinkedID = nullableString(linkedID)

		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresMessageRepo) CountUnread(ctx context.Context, phone string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sms_messages
		WHERE direction = 'Inbound' AND NOT read
	`
	args := []any{}
	if phone != "" {
		query += ` AND phone_number = $1`
		args = append(args, phone)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresMessageRepo) MarkRead(ctx context.Context, phone string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET read = TRUE
		WHERE phone_number = $1 AND direction = 'Inbound' AND NOT read
	`, phone)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresMessageRepo) MarkUnread(ctx context.Context, phone string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET read = FALSE
		WHERE id = (
			SELECT id FROM sms_messages
			WHERE phone_number = $1 AND direction = 'Inbound'
			ORDER BY sent_at DESC, seq DESC
			LIMIT 1
		)
	`, phone)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresMessageRepo) RelinkByPhone(ctx context.Context, phone, linkedType, linkedID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET linked_doctype = $2,
		    linked_name = $3
		WHERE phone_number = $1
	`, phone, linkedType, linkedID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresMessageRepo) RelinkByIDs(ctx context.Context, ids []string, linkedType, linkedID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE sms_messages
		SET linked_doctype = $2,
		    linked_name = $3
		WHERE id = ANY($1)
	`, ids, linkedType, linkedID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresMessageRepo) FindRecentOutboundLink(ctx context.Context, variants []string) (*OutboundLink, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT linked_doctype, linked_name, contact_name
		FROM sms_messages
		WHERE phone_number = ANY($1)
		  AND direction = 'Outbound'
		  AND linked_doctype IS NOT NULL
		  AND linked_doctype <> ''
		ORDER BY sent_at DESC, seq DESC
		LIMIT 1
	`, variants)

	var linkedType, linkedID, contactName sql.NullString
	if err := row.Scan(&linkedType, &linkedID, &contactName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &OutboundLink{
		LinkedType:  linkedType.String,
		LinkedID:    linkedID.String,
		ContactName: contactName.String,
	}, nil
}

func scanMessage(rows *sql.Rows) (model.Message, error) {
	var m model.Message
	var direction, status string
	var providerID, linkedType, linkedID, contactName, lastError sql.NullString

	if err := rows.Scan(
		&m.ID,
		&direction,
		&m.PhoneNumber,
		&m.Body,
		&status,
		&providerID,
		&linkedType,
		&linkedID,
		&contactName,
		&m.SentBy,
		&m.SentAt,
		&m.Read,
		&lastError,
	); err != nil {
		return model.Message{}, err
	}

	m.Direction = model.Direction(direction)
	m.Status = model.Status(status)
	m.ProviderMessageID = nullableString(providerID)
	m.LinkedType = nullableString(linkedType)
	m.LinkedID = nullableString(linkedID)
	m.ContactName = nullableString(contactName)
	m.LastError = nullableString(lastError)

	return m, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
