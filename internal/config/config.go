package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	AppName string
	AppURL  string

	// AllowedEmails is the login whitelist. Sourced once at startup.
	AllowedEmails []string

	CodeTTL         time.Duration
	SessionTTL      time.Duration
	CodeRetention   time.Duration
	JanitorInterval time.Duration // zero disables the janitor

	StoreDriver  string // "dynamo" | "sqlite" | "pgx" | "memory"
	DBConnection string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	MailDriver   string // "smtp" | "resend" | "log"
	MailFrom     string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string

	SessionCookieName string
	LoginPath         string
	PortalDir         string
	SessionCheckURL   string // when set, the portal gate checks sessions over HTTP

	RateLimitPerSecond float64
	RateLimitBurst     int

	SentryDSN      string
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	VerificationCodes string
	Sessions          string
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development"
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:       getEnv("APP_PORT", "3000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		AppName:       getEnv("APP_NAME", "Portal"),
		AppURL:        getEnv("APP_URL", "http://localhost:3000"),
		AllowedEmails: getEnvList("ALLOWED_EMAILS"),

		CodeTTL:         getEnvDuration("CODE_TTL", 10*time.Minute),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		CodeRetention:   getEnvDuration("CODE_RETENTION", 30*24*time.Hour),
		JanitorInterval: getEnvDuration("JANITOR_INTERVAL", 0),

		StoreDriver:  getEnv("STORE_DRIVER", "dynamo"),
		DBConnection: getEnv("DB_CONNECTION", "./data/portal.db"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
		},

		MailDriver:   getEnv("MAIL_DRIVER", "smtp"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@example.com"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session_id"),
		LoginPath:         getEnv("LOGIN_PATH", "/portal/login.html"),
		PortalDir:         getEnv("PORTAL_DIR", ""),
		SessionCheckURL:   getEnv("SESSION_CHECK_URL", ""),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),

		SentryDSN:      getEnv("SENTRY_DSN", ""),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
