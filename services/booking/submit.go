package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voicedesk/models"
	"voicedesk/utils"
)

// Submitter posts confirmed bookings to the booking webhook.
type Submitter interface {
	SubmitBooking(ctx context.Context, b models.Booking) error
}

// WebhookSubmitter is the production submitter.
type WebhookSubmitter struct {
	URL    string
	Client *http.Client
}

func NewWebhookSubmitter(url string) *WebhookSubmitter {
	return &WebhookSubmitter{
		URL:    url,
		Client: &http.Client{Timeout: 8 * time.Second},
	}
}

// SubmitBooking delivers one booking. Any failure leaves the booking
// unrecorded; the caller keeps it confirmable and may retry on a later yes.
func (w *WebhookSubmitter) SubmitBooking(ctx context.Context, b models.Booking) error {
	if w.URL == "" {
		return NewSubmitError("no booking webhook configured")
	}
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode booking: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("booking webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewSubmitError(fmt.Sprintf("booking webhook returned status %d", resp.StatusCode))
	}
	utils.GetLogger().Info("Booking submitted",
		zap.String("stylist", b.Stylist),
		zap.String("service", string(b.Service)),
		zap.Time("datetime", b.Datetime))
	return nil
}
