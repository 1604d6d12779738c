// Package contact implements the contact form submission flow: it owns the
// form fields, posts them to the email delivery endpoint and exposes a
// transient status that is dismissed a few seconds after each outcome.
package contact

import (
	"context"
	"strings"
	"time"
)

// Phase is the stage of the most recent submission attempt.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// User-facing status messages.
const (
	SuccessText = "Message sent successfully! I will get back to you soon."
	FailureText = "Failed to send message. Please try again later."
)

// DefaultDismissAfter is how long a success or failure message stays visible.
const DefaultDismissAfter = 5000 * time.Millisecond

// SubmissionInput is the data entered in the contact form.
type SubmissionInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Complete reports whether every field holds non-blank text. The flow never
// calls it; it is the required-field check of whatever form feeds Submit.
func (in SubmissionInput) Complete() bool {
	return strings.TrimSpace(in.Name) != "" &&
		strings.TrimSpace(in.Email) != "" &&
		strings.TrimSpace(in.Message) != ""
}

// Status describes the outcome of the latest submission.
type Status struct {
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
}

// Sender delivers a submission to the email delivery endpoint.
type Sender interface {
	Send(ctx context.Context, in SubmissionInput) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, in SubmissionInput) error

// Send calls f(ctx, in).
func (f SenderFunc) Send(ctx context.Context, in SubmissionInput) error {
	return f(ctx, in)
}
