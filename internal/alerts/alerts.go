// Package alerts dispatches health warnings through the configured
// channels: a JSON webhook with retry/backoff, and SMTP email. Dispatch
// failures are logged and never propagated into the monitoring loop.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/config"
	"github.com/syswatch-app/syswatch/internal/models"
)

const (
	// maxRetries is the maximum number of webhook attempts per alert.
	maxRetries = 3

	// baseRetryDelay is the base delay for exponential backoff between retries.
	baseRetryDelay = 2 * time.Second

	// requestTimeout bounds each webhook attempt.
	requestTimeout = 10 * time.Second
)

// webhookPayload is the JSON body posted to the webhook URL.
type webhookPayload struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Details   *models.AnalysisResult `json:"details"`
	Timestamp string                 `json:"timestamp"`
}

// Notifier fans health warnings out to the enabled alert channels.
type Notifier struct {
	cfg    config.AlertConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a Notifier from the alert configuration.
func New(cfg config.AlertConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// Notify dispatches an analysis result that carries warnings. Healthy and
// error results are ignored; the analyzer already reported those states.
func (n *Notifier) Notify(ctx context.Context, result *models.AnalysisResult) {
	if result == nil || result.Status != models.StatusWarning {
		return
	}

	message := fmt.Sprintf("System health warnings (%d):\n%s",
		len(result.Warnings), strings.Join(result.Warnings, "\n"))

	if n.cfg.Webhook.Enabled {
		n.sendWebhook(ctx, message, result)
	}
	if n.cfg.Email.Enabled {
		n.sendEmail(message)
	}
}

// sendWebhook POSTs the alert payload with exponential backoff.
func (n *Notifier) sendWebhook(ctx context.Context, message string, result *models.AnalysisResult) {
	payload := webhookPayload{
		Type:      result.Status,
		Message:   message,
		Details:   result,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("Failed to marshal webhook payload", zap.Error(err))
		return
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * baseRetryDelay
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost,
			n.cfg.Webhook.URL, bytes.NewReader(data))
		if rerr != nil {
			n.logger.Error("Failed to build webhook request", zap.Error(rerr))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, derr := n.client.Do(req)
		if derr != nil {
			n.logger.Warn("Webhook attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Error(derr))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.logger.Info("Webhook alert delivered",
				zap.Int("warnings", len(result.Warnings)))
			return
		}
		n.logger.Warn("Webhook returned non-success status",
			zap.Int("attempt", attempt+1),
			zap.Int("status", resp.StatusCode))
	}

	n.logger.Error("Webhook alert failed after all retries",
		zap.String("url", n.cfg.Webhook.URL))
}

// sendEmail delivers the alert over SMTP with STARTTLS.
func (n *Notifier) sendEmail(message string) {
	addr := fmt.Sprintf("%s:%d", n.cfg.Email.SMTPServer, n.cfg.Email.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.Email.Sender, n.cfg.Email.Password, n.cfg.Email.SMTPServer)

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: System Diagnostics Alert\r\n\r\n%s\r\n",
		n.cfg.Email.Sender,
		strings.Join(n.cfg.Email.Recipients, ", "),
		message)

	if err := smtp.SendMail(addr, auth, n.cfg.Email.Sender, n.cfg.Email.Recipients, []byte(body)); err != nil {
		n.logger.Error("Failed to send email alert", zap.Error(err))
		return
	}
	n.logger.Info("Email alert delivered",
		zap.Int("recipients", len(n.cfg.Email.Recipients)))
}
