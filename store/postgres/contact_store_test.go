package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageColumns = []string{
	"id", "name", "email", "message", "remote_ip", "user_agent", "received_at", "delivered", "provider_id",
}

func createTestMessage() *types.ContactMessage {
	return &types.ContactMessage{
		ID:         uuid.NewString(),
		Name:       "Jane",
		Email:      "jane@x.com",
		Message:    "Hi",
		RemoteIP:   "192.0.2.10",
		UserAgent:  "Mozilla/5.0",
		ReceivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Delivered:  true,
		ProviderID: "re_123",
	}
}

func setupMockPool(t *testing.T) (pgxmock.PgxPoolIface, *ContactStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewContactStore(mock)
}

func TestContactStore_SaveMessage(t *testing.T) {
	msg := createTestMessage()
	args := []any{msg.ID, msg.Name, msg.Email, msg.Message, msg.RemoteIP, msg.UserAgent, msg.ReceivedAt, msg.Delivered, msg.ProviderID}

	t.Run("successful insert", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectExec("INSERT INTO contact_messages").
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.SaveMessage(context.Background(), msg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectExec("INSERT INTO contact_messages").
			WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		err := s.SaveMessage(context.Background(), msg)
		assert.True(t, errors.Is(err, store.ErrConflict))
	})

	t.Run("database error", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectExec("INSERT INTO contact_messages").
			WithArgs(args...).
			WillReturnError(errors.New("connection reset"))

		err := s.SaveMessage(context.Background(), msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save contact message")
	})
}

func TestContactStore_GetMessage(t *testing.T) {
	msg := createTestMessage()

	t.Run("found", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectQuery("SELECT (.+) FROM contact_messages WHERE id").
			WithArgs(msg.ID).
			WillReturnRows(pgxmock.NewRows(messageColumns).AddRow(
				msg.ID, msg.Name, msg.Email, msg.Message, msg.RemoteIP, msg.UserAgent, msg.ReceivedAt, msg.Delivered, msg.ProviderID))

		got, err := s.GetMessage(context.Background(), msg.ID)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectQuery("SELECT (.+) FROM contact_messages WHERE id").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(messageColumns))

		_, err := s.GetMessage(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestContactStore_ListMessages(t *testing.T) {
	first := createTestMessage()
	second := createTestMessage()
	second.ReceivedAt = first.ReceivedAt.Add(-time.Hour)
	second.Delivered = false
	second.ProviderID = ""

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"explicit paging", 10, 5, 10, 5},
		{"defaults for invalid values", 0, -3, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, s := setupMockPool(t)
			mock.ExpectQuery("SELECT (.+) FROM contact_messages ORDER BY received_at DESC").
				WithArgs(tt.wantLimit, tt.wantOffset).
				WillReturnRows(pgxmock.NewRows(messageColumns).
					AddRow(first.ID, first.Name, first.Email, first.Message, first.RemoteIP, first.UserAgent, first.ReceivedAt, first.Delivered, first.ProviderID).
					AddRow(second.ID, second.Name, second.Email, second.Message, second.RemoteIP, second.UserAgent, second.ReceivedAt, second.Delivered, second.ProviderID))

			got, err := s.ListMessages(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, first, got[0])
			assert.Equal(t, second, got[1])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("query error", func(t *testing.T) {
		mock, s := setupMockPool(t)
		mock.ExpectQuery("SELECT (.+) FROM contact_messages").
			WithArgs(20, 0).
			WillReturnError(errors.New("timeout"))

		_, err := s.ListMessages(context.Background(), 20, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list contact messages")
	})
}
