// Package store defines persistence for archived contact messages.
package store

import (
	"context"
	"errors"

	"github.com/devfolio/portfolio-backend/types"
)

var (
	// ErrNotFound indicates that a requested message was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a message with the same ID already exists.
	ErrConflict = errors.New("conflict")
)

// ContactStore archives relayed contact messages.
type ContactStore interface {
	SaveMessage(ctx context.Context, msg *types.ContactMessage) error
	GetMessage(ctx context.Context, id string) (*types.ContactMessage, error)
	// ListMessages returns messages newest first.
	ListMessages(ctx context.Context, limit, offset int) ([]*types.ContactMessage, error)
}
