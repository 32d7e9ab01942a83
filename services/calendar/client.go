package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voicedesk/utils"
)

// Interval is a half-open busy span [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Overlaps(start, end time.Time) bool {
	return start.Before(iv.End) && iv.Start.Before(end)
}

// Client answers busy/free questions about a stylist's calendar.
type Client interface {
	// Busy reports whether the span starting at start for the given
	// duration collides with an existing event.
	Busy(ctx context.Context, start time.Time, d time.Duration, stylist string) (bool, error)
	// BusyIntervals lists the busy spans within [dayStart, dayEnd).
	BusyIntervals(ctx context.Context, dayStart, dayEnd time.Time, stylist string) ([]Interval, error)
}

// NullClient is the everything-is-free client used when no calendar
// backend is configured.
type NullClient struct{}

func (NullClient) Busy(context.Context, time.Time, time.Duration, string) (bool, error) {
	return false, nil
}

func (NullClient) BusyIntervals(context.Context, time.Time, time.Time, string) ([]Interval, error) {
	return nil, nil
}

// HTTPClient queries a REST calendar backend.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type busyQuery struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Stylist string    `json:"stylist"`
}

func (c *HTTPClient) post(ctx context.Context, path string, q busyQuery, out any) error {
	body, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode calendar query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode calendar response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Busy(ctx context.Context, start time.Time, d time.Duration, stylist string) (bool, error) {
	var out struct {
		Busy bool `json:"busy"`
	}
	q := busyQuery{Start: start, End: start.Add(d), Stylist: stylist}
	if err := c.post(ctx, "/busy", q, &out); err != nil {
		utils.GetLogger().Warn("Calendar busy lookup failed", zap.Error(err))
		return false, err
	}
	return out.Busy, nil
}

func (c *HTTPClient) BusyIntervals(ctx context.Context, dayStart, dayEnd time.Time, stylist string) ([]Interval, error) {
	var out struct {
		Intervals []Interval `json:"intervals"`
	}
	q := busyQuery{Start: dayStart, End: dayEnd, Stylist: stylist}
	if err := c.post(ctx, "/intervals", q, &out); err != nil {
		utils.GetLogger().Warn("Calendar interval lookup failed", zap.Error(err))
		return nil, err
	}
	return out.Intervals, nil
}
