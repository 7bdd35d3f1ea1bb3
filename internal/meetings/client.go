// Package meetings requests join links for online appointments from a video
// conferencing provider.
package meetings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client talks to the conferencing provider's meetings API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config holds conferencing provider connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a meeting link client. Returns nil when no base URL is
// configured, which callers treat as link generation disabled.
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
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GenerateLink provisions a meeting room keyed to the appointment and
// returns its join URL.
func (c *Client) GenerateLink(ctx context.Context, appointmentID string) (string, error) {
	body, err := json.Marshal(struct {
		ExternalID string `json:"external_id"`
	}{ExternalID: appointmentID})
	if err != nil {
		return "", fmt.Errorf("meetings: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/meetings", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("meetings: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("meetings: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("meeting provider returned error status", "status", resp.StatusCode, "body", string(data))
		return "", fmt.Errorf("meetings: provider returned status %d", resp.StatusCode)
	}

	var out struct {
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("meetings: decode response: %w", err)
	}
	if out.JoinURL == "" {
		return "", fmt.Errorf("meetings: provider returned empty join url")
	}
	c.logger.Info("meeting link generated", "appointment_id", appointmentID)
	return out.JoinURL, nil
}
