package types

import (
	"encoding/json"
	"strings"
	"time"
)

// ContactRequest is the body accepted by POST /api/sendEmail.
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Message string `json:"message" binding:"required,max=5000"`
}

// UnmarshalJSON trims surrounding whitespace from every field so binding
// validation sees the values that get relayed.
func (r *ContactRequest) UnmarshalJSON(data []byte) error {
	type plain ContactRequest
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = ContactRequest{
		Name:    strings.TrimSpace(v.Name),
		Email:   strings.TrimSpace(v.Email),
		Message: strings.TrimSpace(v.Message),
	}
	return nil
}

// ContactMessage is a received submission together with request metadata.
type ContactMessage struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	RemoteIP   string    `json:"remote_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	// Delivered and ProviderID record the relay outcome for the archive.
	Delivered  bool   `json:"delivered"`
	ProviderID string `json:"provider_id,omitempty"`
}
