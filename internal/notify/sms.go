package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

const defaultTelnyxBaseURL = "https://api.telnyx.com/v2"

// SMSSender abstracts outbound SMS sending.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TelnyxConfig holds configuration for the Telnyx SMS sender.
type TelnyxConfig struct {
	BaseURL    string
	APIKey     string
	From       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// TelnyxSender sends SMS via the Telnyx messages endpoint.
type TelnyxSender struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTelnyxSender creates a Telnyx SMS sender. Returns nil when no API key
// is configured.
func NewTelnyxSender(cfg TelnyxConfig, logger *logging.Logger) *TelnyxSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTelnyxBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &TelnyxSender{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SendSMS sends a single text message.
func (s *TelnyxSender) SendSMS(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("notify: sms recipient required")
	}
	payload, err := json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}{From: s.from, To: to, Text: body})
	if err != nil {
		return fmt.Errorf("notify: marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: sms send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("telnyx returned error status", "status", resp.StatusCode, "body", string(data), "to", to)
		return fmt.Errorf("notify: telnyx returned status %d", resp.StatusCode)
	}

	s.logger.Info("sms sent via telnyx", "to", to, "status", resp.StatusCode)
	return nil
}

// StubSMSSender is a no-op sender for testing or when SMS is disabled.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender that logs but doesn't send.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs the message but doesn't actually send it.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub sms sender: would send sms", "to", to)
	return nil
}
