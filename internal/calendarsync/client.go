// Package calendarsync mirrors booked appointments into an external
// calendar service over its REST API. Event ids returned by the service are
// stored on the appointment so later updates and cancellations can target
// the same event.
package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client talks to the calendar service's events API.
type Client struct {
	baseURL    string
	apiKey     string
	calendarID string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config holds calendar service connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	CalendarID string
	HTTPClient *http.Client
}

// NewClient creates a calendar sync client. Returns nil when no base URL is
// configured, which callers treat as sync disabled.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		calendarID: calendarID,
		httpClient: httpClient,
		logger:     logger,
	}
}

type eventPayload struct {
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Status      string `json:"status,omitempty"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateEvent creates a calendar event for a booked appointment and returns
// the provider's event id.
func (c *Client) CreateEvent(ctx context.Context, appt *appointments.Appointment, notes string) (string, error) {
	payload := eventPayload{
		Summary:     fmt.Sprintf("%s — %s", appt.ServiceType, appt.CustomerName),
		Description: notes,
		Start:       appt.ScheduledAt.Format(time.RFC3339),
		End:         appt.End().Format(time.RFC3339),
	}
	var out eventResponse
	if err := c.do(ctx, http.MethodPost, c.eventsPath(""), payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("calendarsync: create event returned empty id")
	}
	c.logger.Info("calendar event created", "event_id", out.ID, "appointment_id", appt.ID)
	return out.ID, nil
}

// UpdateEvent moves an existing event to a new interval.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, start, end time.Time) error {
	payload := eventPayload{
		Start: start.Format(time.RFC3339),
		End:   end.Format(time.RFC3339),
	}
	if err := c.do(ctx, http.MethodPatch, c.eventsPath(eventID), payload, nil); err != nil {
		return err
	}
	c.logger.Info("calendar event updated", "event_id", eventID)
	return nil
}

// CancelEvent marks an event cancelled on the provider side.
func (c *Client) CancelEvent(ctx context.Context, eventID, reason string) error {
	payload := eventPayload{Status: "cancelled", Description: reason}
	if err := c.do(ctx, http.MethodPatch, c.eventsPath(eventID), payload, nil); err != nil {
		return err
	}
	c.logger.Info("calendar event cancelled", "event_id", eventID)
	return nil
}

func (c *Client) eventsPath(eventID string) string {
	base := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, c.calendarID)
	if eventID == "" {
		return base
	}
	return base + "/" + eventID
}

func (c *Client) do(ctx context.Context, method, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("calendarsync: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calendarsync: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendarsync: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("calendar service returned error status", "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("calendarsync: service returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("calendarsync: decode response: %w", err)
	}
	return nil
}

// NoopSync satisfies the sync interface without talking to any provider.
// Used when calendar sync is not configured.
type NoopSync struct{}

// CreateEvent returns an empty event id.
func (NoopSync) CreateEvent(ctx context.Context, appt *appointments.Appointment, notes string) (string, error) {
	return "", nil
}

// UpdateEvent does nothing.
func (NoopSync) UpdateEvent(ctx context.Context, eventID string, start, end time.Time) error {
	return nil
}

// CancelEvent does nothing.
func (NoopSync) CancelEvent(ctx context.Context, eventID, reason string) error {
	return nil
}
