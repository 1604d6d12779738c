package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/devfolio/portfolio-backend/errors"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/services"
	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessMessage is the body text of a successful relay.
const SuccessMessage = "Email sent successfully"

// JobSubmitter is satisfied by *services.WorkerPool.
type JobSubmitter interface {
	Submit(job services.Job) bool
}

// ContactHandler relays contact form submissions to the site owner.
type ContactHandler struct {
	emailService types.EmailService
	archive      store.ContactStore
	jobs         JobSubmitter
	now          func() time.Time
}

// NewContactHandler creates a ContactHandler. archive and jobs may both be
// nil, in which case messages are relayed but not archived.
func NewContactHandler(emailService types.EmailService, archive store.ContactStore, jobs JobSubmitter) *ContactHandler {
	return &ContactHandler{
		emailService: emailService,
		archive:      archive,
		jobs:         jobs,
		now:          time.Now,
	}
}

// SendEmail relays a contact form submission to the site owner. It answers
// 200 with SuccessMessage, 400 for a missing, blank or malformed field and 502
// when the email provider rejects the message. The message is archived either
// way when an archive is configured.
func (h *ContactHandler) SendEmail(c *gin.Context) {
	var req types.ContactRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	msg := &types.ContactMessage{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
		RemoteIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		ReceivedAt: h.now().UTC(),
	}

	providerID, err := h.emailService.SendContactEmail(c.Request.Context(), msg)
	if err != nil {
		h.archiveMessage(*msg)
		_ = c.Error(errors.EmailDeliveryFailed(err))
		return
	}

	msg.Delivered = true
	msg.ProviderID = providerID
	h.archiveMessage(*msg)

	c.JSON(http.StatusOK, types.StatusResponse{Message: SuccessMessage})
}

// archiveMessage queues msg for the archive. Failures are logged only; the
// caller's response never depends on the archive.
func (h *ContactHandler) archiveMessage(msg types.ContactMessage) {
	if h.archive == nil || h.jobs == nil {
		return
	}

	log := logger.GetLogger()
	queued := h.jobs.Submit(services.Job{
		Name: "archive-contact-message",
		Execute: func(ctx context.Context) error {
			if err := h.archive.SaveMessage(ctx, &msg); err != nil {
				log.Errorw("Failed to archive contact message",
					"message_id", msg.ID,
					"error", err)
				return err
			}
			return nil
		},
	})
	if !queued {
		log.Warnw("Archive queue full, contact message not archived", "message_id", msg.ID)
	}
}
