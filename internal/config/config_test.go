package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PERSISTENCE_BACKEND", "")
	t.Setenv("EMAIL_REMINDER_LEAD_HOURS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PersistenceBackend != "memory" {
		t.Fatalf("expected default persistence backend, got %s", cfg.PersistenceBackend)
	}
	if cfg.BufferMinutes != 15 {
		t.Fatalf("expected default buffer minutes, got %d", cfg.BufferMinutes)
	}
	if cfg.ReminderTickInterval != 5*time.Minute {
		t.Fatalf("expected default reminder tick interval, got %s", cfg.ReminderTickInterval)
	}
	if len(cfg.EmailReminderLeadHours) != 2 || cfg.EmailReminderLeadHours[0] != 48 {
		t.Fatalf("expected default email lead hours [48 24], got %v", cfg.EmailReminderLeadHours)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("PERSISTENCE_BACKEND", "Redis")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("BUFFER_MINUTES", "30")
	t.Setenv("MAX_CONCURRENT_APPOINTMENTS", "3")
	t.Setenv("EMAIL_REMINDER_LEAD_HOURS", "72, 24, 1")
	t.Setenv("BLOCKED_DATES", "2026-12-25,2026-01-01")
	t.Setenv("REMINDER_TICK_INTERVAL", "90s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.PersistenceBackend != "redis" {
		t.Fatalf("expected lowercased backend, got %s", cfg.PersistenceBackend)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.BufferMinutes != 30 {
		t.Fatalf("expected buffer override, got %d", cfg.BufferMinutes)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("expected concurrency override, got %d", cfg.MaxConcurrent)
	}
	if len(cfg.EmailReminderLeadHours) != 3 || cfg.EmailReminderLeadHours[2] != 1 {
		t.Fatalf("expected email lead hours [72 24 1], got %v", cfg.EmailReminderLeadHours)
	}
	if len(cfg.BlockedDates) != 2 || cfg.BlockedDates[1] != "2026-01-01" {
		t.Fatalf("expected blocked dates override, got %v", cfg.BlockedDates)
	}
	if cfg.ReminderTickInterval != 90*time.Second {
		t.Fatalf("expected tick interval override, got %s", cfg.ReminderTickInterval)
	}
}

func TestIntListSkipsGarbage(t *testing.T) {
	t.Setenv("SMS_REMINDER_LEAD_HOURS", "2,abc,4")
	cfg := Load()
	if len(cfg.SMSReminderLeadHours) != 2 || cfg.SMSReminderLeadHours[1] != 4 {
		t.Fatalf("expected [2 4], got %v", cfg.SMSReminderLeadHours)
	}
}
