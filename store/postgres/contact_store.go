package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ store.ContactStore = (*ContactStore)(nil)

// ContactStore implements store.ContactStore on PostgreSQL.
type ContactStore struct {
	db DBTX
}

func NewContactStore(db DBTX) *ContactStore {
	return &ContactStore{db: db}
}

const insertMessage = `
	INSERT INTO contact_messages
		(id, name, email, message, remote_ip, user_agent, received_at, delivered, provider_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (s *ContactStore) SaveMessage(ctx context.Context, msg *types.ContactMessage) error {
	_, err := s.db.Exec(ctx, insertMessage,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Message,
		msg.RemoteIP,
		msg.UserAgent,
		msg.ReceivedAt,
		msg.Delivered,
		msg.ProviderID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("message %s: %w", msg.ID, store.ErrConflict)
		}
		return fmt.Errorf("failed to save contact message: %w", err)
	}
	return nil
}

const selectMessageColumns = `
	SELECT id, name, email, message, remote_ip, user_agent, received_at, delivered, provider_id
	FROM contact_messages`

func (s *ContactStore) GetMessage(ctx context.Context, id string) (*types.ContactMessage, error) {
	row := s.db.QueryRow(ctx, selectMessageColumns+` WHERE id = $1`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return msg, nil
}

func (s *ContactStore) ListMessages(ctx context.Context, limit, offset int) ([]*types.ContactMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx,
		selectMessageColumns+` ORDER BY received_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*types.ContactMessage, 0, limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*types.ContactMessage, error) {
	msg := &types.ContactMessage{}
	err := row.Scan(
		&msg.ID,
		&msg.Name,
		&msg.Email,
		&msg.Message,
		&msg.RemoteIP,
		&msg.UserAgent,
		&msg.ReceivedAt,
		&msg.Delivered,
		&msg.ProviderID,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
