package contact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devfolio/portfolio-backend/logger"
	"go.uber.org/zap"
)

// stopper is the part of *time.Timer the flow relies on.
type stopper interface {
	Stop() bool
}

// scheduleFunc runs f once after d and returns a handle that cancels it.
type scheduleFunc func(d time.Duration, f func()) stopper

func afterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Option configures a Flow.
type Option func(*Flow)

// WithDismissAfter overrides how long a terminal status stays visible.
func WithDismissAfter(d time.Duration) Option {
	return func(f *Flow) {
		f.dismissAfter = d
	}
}

// WithStatusListener registers fn to observe every status transition.
// Listeners are called one at a time, in transition order, after the flow's
// lock is released, so they may call back into the Flow. A transition made
// while another goroutine is delivering is handed to that goroutine.
func WithStatusListener(fn func(Status)) Option {
	return func(f *Flow) {
		f.listeners = append(f.listeners, fn)
	}
}

// WithLogger replaces the logger used for failure diagnostics.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(f *Flow) {
		f.log = log
	}
}

func withScheduler(s scheduleFunc) Option {
	return func(f *Flow) {
		f.schedule = s
	}
}

// Flow is the contact form state machine. It owns the form input and the
// submission status; one Flow serves one form.
//
// Overlapping Submit calls are neither queued nor cancelled: whichever
// response resolves last decides the visible status. A dismiss timer only
// clears the status it was scheduled for; any later transition invalidates it.
type Flow struct {
	sender       Sender
	log          *zap.SugaredLogger
	dismissAfter time.Duration
	schedule     scheduleFunc
	listeners    []func(Status)

	mu         sync.Mutex
	input      SubmissionInput
	status     Status
	generation uint64
	dismiss    stopper
	pending    []Status
	delivering bool
}

// NewFlow returns an idle flow that delivers submissions through sender.
func NewFlow(sender Sender, opts ...Option) *Flow {
	f := &Flow{
		sender:       sender,
		log:          logger.GetLogger().Named("contact-flow"),
		dismissAfter: DefaultDismissAfter,
		schedule:     afterFunc,
		status:       Status{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Input returns a snapshot of the form fields.
func (f *Flow) Input() SubmissionInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// Status returns a snapshot of the current status.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// SetName sets the name field.
func (f *Flow) SetName(v string) {
	f.mu.Lock()
	f.input.Name = v
	f.mu.Unlock()
}

// SetEmail sets the email field.
func (f *Flow) SetEmail(v string) {
	f.mu.Lock()
	f.input.Email = v
	f.mu.Unlock()
}

// SetMessage sets the message field.
func (f *Flow) SetMessage(v string) {
	f.mu.Lock()
	f.input.Message = v
	f.mu.Unlock()
}

// SetField sets a field by its form name: "name", "email" or "message".
func (f *Flow) SetField(field, v string) error {
	switch field {
	case "name":
		f.SetName(v)
	case "email":
		f.SetEmail(v)
	case "message":
		f.SetMessage(v)
	default:
		return fmt.Errorf("unknown contact field %q", field)
	}
	return nil
}

// Submit posts in and returns the resulting terminal status. It blocks until
// the sender returns. Failures never propagate: they become PhaseFailed and
// the cause is only logged. On success the form input is cleared.
func (f *Flow) Submit(ctx context.Context, in SubmissionInput) Status {
	f.mu.Lock()
	f.input = in
	f.transitionLocked(Status{Phase: PhaseSubmitting})
	f.mu.Unlock()
	f.notify()

	err := f.sender.Send(ctx, in)

	var next Status
	if err != nil {
		f.log.Errorw("Error sending contact message",
			"error", err,
			"email", logger.MaskEmail(in.Email))
		next = Status{Phase: PhaseFailed, Text: FailureText}
	} else {
		next = Status{Phase: PhaseSucceeded, Text: SuccessText}
	}

	f.mu.Lock()
	if err == nil {
		f.input = SubmissionInput{}
	}
	f.transitionLocked(next)
	gen := f.generation
	f.dismiss = f.schedule(f.dismissAfter, func() { f.expire(gen) })
	f.mu.Unlock()
	f.notify()

	return next
}

// Close cancels a pending dismiss timer. The status is left as is.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopDismissLocked()
	f.generation++
}

// transitionLocked replaces the status, invalidates any pending dismiss and
// queues s for the listeners.
func (f *Flow) transitionLocked(s Status) {
	f.stopDismissLocked()
	f.generation++
	f.status = s
	if len(f.listeners) > 0 {
		f.pending = append(f.pending, s)
	}
}

func (f *Flow) stopDismissLocked() {
	if f.dismiss != nil {
		f.dismiss.Stop()
		f.dismiss = nil
	}
}

// expire returns to idle if no transition happened since gen was current.
func (f *Flow) expire(gen uint64) {
	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return
	}
	f.dismiss = nil
	f.transitionLocked(Status{Phase: PhaseIdle})
	f.mu.Unlock()
	f.notify()
}

// notify delivers queued statuses unless another goroutine already is.
func (f *Flow) notify() {
	f.mu.Lock()
	if f.delivering {
		f.mu.Unlock()
		return
	}
	f.delivering = true
	for len(f.pending) > 0 {
		batch := f.pending
		f.pending = nil
		f.mu.Unlock()
		for _, s := range batch {
			for _, fn := range f.listeners {
				fn(s)
			}
		}
		f.mu.Lock()
	}
	f.delivering = false
	f.mu.Unlock()
}
