package types

import "context"

// EmailService relays contact messages to the site owner.
type EmailService interface {
	// SendContactEmail delivers msg and returns the provider's message ID.
	SendContactEmail(ctx context.Context, msg *ContactMessage) (string, error)
}
