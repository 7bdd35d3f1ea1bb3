package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelnyxSenderSendSMS(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewTelnyxSender(TelnyxConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		From:    "+18885550100",
	}, nil)
	require.NotNil(t, sender)

	err := sender.SendSMS(context.Background(), "+19375550101", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "+18885550100", gotPayload["from"])
	assert.Equal(t, "+19375550101", gotPayload["to"])
	assert.Equal(t, "hello", gotPayload["text"])
}

func TestTelnyxSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"title":"invalid number"}]}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sender := NewTelnyxSender(TelnyxConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	err := sender.SendSMS(context.Background(), "+19375550101", "hello")
	assert.ErrorContains(t, err, "status 422")
}

func TestTelnyxSenderMissingRecipient(t *testing.T) {
	sender := NewTelnyxSender(TelnyxConfig{BaseURL: "http://localhost", APIKey: "test-key"}, nil)
	err := sender.SendSMS(context.Background(), "  ", "hello")
	assert.ErrorContains(t, err, "recipient required")
}

func TestNewTelnyxSenderWithoutKey(t *testing.T) {
	assert.Nil(t, NewTelnyxSender(TelnyxConfig{From: "+18885550100"}, nil))
}
