package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

var _ types.EmailService = (*EmailService)(nil)

type EmailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// EmailService relays contact messages to the owner address through Resend.
type EmailService struct {
	config  *config.EmailConfig
	client  *resend.Client
	tmpl    *template.Template
	metrics *EmailMetrics
}

func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return NewEmailServiceWithRegistry(cfg, prometheus.DefaultRegisterer)
}

func NewEmailServiceWithRegistry(cfg *config.EmailConfig, reg prometheus.Registerer) *EmailService {
	logger.GetLogger().Infow("Initializing email service",
		"from", cfg.FromAddress,
		"owner", logger.MaskEmail(cfg.OwnerAddress),
		"apikey", logger.MaskSensitiveString(cfg.ResendAPIKey, 3, 2))

	metrics := &EmailMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_email_send_duration_seconds",
			Help:    "Time taken to relay contact emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_email_errors_total",
			Help: "Total number of contact email relay errors",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_emails_sent_total",
			Help: "Total number of contact emails relayed",
		}),
	}

	reg.MustRegister(metrics.sendLatency)
	reg.MustRegister(metrics.errorCount)
	reg.MustRegister(metrics.sentCount)

	return &EmailService{
		config:  cfg,
		client:  resend.NewClient(cfg.ResendAPIKey),
		tmpl:    template.Must(template.New("contact").Parse(contactEmailTemplate)),
		metrics: metrics,
	}
}

// SendContactEmail sends msg to the owner with the visitor as Reply-To and
// returns the Resend message ID.
func (s *EmailService) SendContactEmail(ctx context.Context, msg *types.ContactMessage) (string, error) {
	startTime := time.Now()
	log := logger.GetLogger()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(startTime).Seconds())
	}()

	if err := validateContactMessage(msg); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Invalid contact message", "error", err)
		return "", err
	}

	var htmlContent bytes.Buffer
	if err := s.tmpl.Execute(&htmlContent, msg); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to execute email template", "error", err)
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      []string{s.config.OwnerAddress},
		ReplyTo: msg.Email,
		Subject: s.subject(msg),
		Html:    htmlContent.String(),
		Text:    plainTextBody(msg),
		Tags:    []resend.Tag{{Name: "category", Value: "contact_form"}},
	}

	resp, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send email",
			"error", err,
			"message_id", msg.ID,
			"reply_to", logger.MaskEmail(msg.Email))
		return "", fmt.Errorf("email send failed: %w", err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Contact email sent",
		"message_id", msg.ID,
		"provider_id", resp.Id,
		"reply_to", logger.MaskEmail(msg.Email))

	return resp.Id, nil
}

func (s *EmailService) subject(msg *types.ContactMessage) string {
	subject := "New message from " + msg.Name
	if s.config.SubjectPrefix != "" {
		subject = s.config.SubjectPrefix + " " + subject
	}
	// Header injection guard; Resend rejects CR/LF in subjects anyway.
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
}

func validateContactMessage(msg *types.ContactMessage) error {
	if msg == nil {
		return fmt.Errorf("contact message is nil")
	}
	required := map[string]string{
		"name":    msg.Name,
		"email":   msg.Email,
		"message": msg.Message,
	}
	for _, field := range []string{"name", "email", "message"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	return nil
}

func plainTextBody(msg *types.ContactMessage) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nReceived: %s\n\n%s\n",
		msg.Name, msg.Email, msg.ReceivedAt.UTC().Format(time.RFC1123), msg.Message)
}

const contactEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New contact message</title>
    <style>
        body {
            font-family: sans-serif;
            background-color: #f7f7f7;
            color: #333333;
            margin: 0;
            padding: 20px;
        }
        .container {
            max-width: 600px;
            margin: 20px auto;
            background-color: #ffffff;
            padding: 30px;
            border-radius: 12px;
        }
        .meta {
            font-size: 14px;
            color: #777777;
        }
        .message {
            white-space: pre-wrap;
            font-size: 16px;
            line-height: 1.6;
        }
    </style>
</head>
<body>
    <div class="container">
        <h2>New message from {{.Name}}</h2>
        <p class="meta">
            From: {{.Name}} &lt;{{.Email}}&gt;<br/>
            Received: {{.ReceivedAt.UTC.Format "Mon, 02 Jan 2006 15:04:05 MST"}}
        </p>
        <p class="message">{{.Message}}</p>
    </div>
</body>
</html>`
