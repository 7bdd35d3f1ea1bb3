package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Scheduling policy
	Timezone                 string
	BufferMinutes            int
	AdvanceBookingDays       int
	CancellationPolicyHours  int
	RescheduleFeeWaiverHours int
	RescheduleFeeCents       int
	MaxConcurrent            int
	DefaultDurationMinutes   int
	EmailReminderLeadHours   []int
	SMSReminderLeadHours     []int
	BlockedDates             []string

	// Reminder worker
	ReminderTickInterval time.Duration

	// Persistence
	PersistenceBackend string // "redis", "postgres", or "memory"
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	DatabaseURL        string

	// Calendar sync collaborator
	CalendarAPIBaseURL string
	CalendarAPIKey     string

	// Meeting link collaborator (online appointments)
	MeetingAPIBaseURL string
	MeetingAPIKey     string

	// SendGrid email reminders
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Telnyx SMS reminders
	TelnyxAPIKey string
	TelnyxFrom   string

	// StudioName appears in outbound reminder copy.
	StudioName string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Timezone:                 getEnv("STUDIO_TIMEZONE", "America/New_York"),
		BufferMinutes:            getEnvAsInt("BUFFER_MINUTES", 15),
		AdvanceBookingDays:       getEnvAsInt("ADVANCE_BOOKING_DAYS", 60),
		CancellationPolicyHours:  getEnvAsInt("CANCELLATION_POLICY_HOURS", 24),
		RescheduleFeeWaiverHours: getEnvAsInt("RESCHEDULE_FEE_WAIVER_HOURS", 24),
		RescheduleFeeCents:       getEnvAsInt("RESCHEDULE_FEE_CENTS", 2500),
		MaxConcurrent:            getEnvAsInt("MAX_CONCURRENT_APPOINTMENTS", 1),
		DefaultDurationMinutes:   getEnvAsInt("DEFAULT_DURATION_MINUTES", 60),
		EmailReminderLeadHours:   getEnvAsIntList("EMAIL_REMINDER_LEAD_HOURS", []int{48, 24}),
		SMSReminderLeadHours:     getEnvAsIntList("SMS_REMINDER_LEAD_HOURS", []int{2}),
		BlockedDates:             getEnvAsList("BLOCKED_DATES", nil),

		ReminderTickInterval: getEnvAsDuration("REMINDER_TICK_INTERVAL", 5*time.Minute),

		PersistenceBackend: strings.ToLower(getEnv("PERSISTENCE_BACKEND", "memory")),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		CalendarAPIBaseURL: getEnv("CALENDAR_API_BASE_URL", ""),
		CalendarAPIKey:     getEnv("CALENDAR_API_KEY", ""),

		MeetingAPIBaseURL: getEnv("MEETING_API_BASE_URL", ""),
		MeetingAPIKey:     getEnv("MEETING_API_KEY", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "bookings@hazelgrove.studio"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Hazelgrove Studio"),

		TelnyxAPIKey: getEnv("TELNYX_API_KEY", ""),
		TelnyxFrom:   getEnv("TELNYX_FROM_NUMBER", ""),

		StudioName: getEnv("STUDIO_NAME", "Hazelgrove Studio"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming whitespace.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsIntList parses a comma-separated list of integers, e.g. "48,24,2".
// Entries that fail to parse are skipped.
func getEnvAsIntList(key string, defaultValue []int) []int {
	var out []int
	for _, p := range getEnvAsList(key, nil) {
		if v, err := strconv.Atoi(p); err == nil {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
