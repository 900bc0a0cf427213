// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetQuoteRatePerMinute() int
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
}

// OfferAPIConfig provides settings for the offer-creation endpoint.
type OfferAPIConfig interface {
	GetOfferAPIURL() string
	GetOfferBatchURL() string
	GetOfferAPIToken() string
	GetOfferTimeout() time.Duration
}

// PricingConfig provides the location of an override pricing table.
type PricingConfig interface {
	GetPricingTablePath() string
}

// InboxConfig provides settings for the IMAP lead mailbox.
type InboxConfig interface {
	GetIMAPHost() string
	GetIMAPPort() int
	GetIMAPUsername() string
	GetIMAPPassword() string
	GetIMAPFolder() string
	GetInboxPollInterval() time.Duration
	IsInboxEnabled() bool
}

// NotificationConfig provides SMTP settings for staff notifications.
type NotificationConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFrom() string
	GetOpsEmail() string
	IsNotificationEnabled() bool
}

// DedupeConfig provides the duplicate-lead window.
type DedupeConfig interface {
	GetDedupeWindow() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	MigrateOnStart     bool
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	QuoteRatePerMinute int
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	OfferAPIURL        string
	OfferBatchURL      string
	OfferAPIToken      string
	OfferTimeout       time.Duration
	PricingTablePath   string
	IMAPHost           string
	IMAPPort           int
	IMAPUsername       string
	IMAPPassword       string
	IMAPFolder         string
	InboxPollInterval  time.Duration
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPFrom           string
	OpsEmail           string
	DedupeWindow       time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetQuoteRatePerMinute() int { return c.QuoteRatePerMinute }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// OfferAPIConfig implementation
func (c *Config) GetOfferAPIURL() string         { return c.OfferAPIURL }
func (c *Config) GetOfferBatchURL() string       { return c.OfferBatchURL }
func (c *Config) GetOfferAPIToken() string       { return c.OfferAPIToken }
func (c *Config) GetOfferTimeout() time.Duration { return c.OfferTimeout }

// PricingConfig implementation
func (c *Config) GetPricingTablePath() string { return c.PricingTablePath }

// InboxConfig implementation
func (c *Config) GetIMAPHost() string                 { return c.IMAPHost }
func (c *Config) GetIMAPPort() int                    { return c.IMAPPort }
func (c *Config) GetIMAPUsername() string             { return c.IMAPUsername }
func (c *Config) GetIMAPPassword() string             { return c.IMAPPassword }
func (c *Config) GetIMAPFolder() string               { return c.IMAPFolder }
func (c *Config) GetInboxPollInterval() time.Duration { return c.InboxPollInterval }
func (c *Config) IsInboxEnabled() bool {
	return c.IMAPHost != "" && c.IMAPUsername != ""
}

// NotificationConfig implementation
func (c *Config) GetSMTPHost() string     { return c.SMTPHost }
func (c *Config) GetSMTPPort() int        { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) GetSMTPFrom() string     { return c.SMTPFrom }
func (c *Config) GetOpsEmail() string     { return c.OpsEmail }
func (c *Config) IsNotificationEnabled() bool {
	return c.SMTPHost != "" && c.OpsEmail != ""
}

// DedupeConfig implementation
func (c *Config) GetDedupeWindow() time.Duration { return c.DedupeWindow }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	offerURL := getEnv("OFFER_API_URL", "")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrateOnStart:     strings.EqualFold(getEnv("MIGRATE_ON_START", "true"), "true"),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		QuoteRatePerMinute: mustInt(getEnv("QUOTE_RATE_PER_MINUTE", "30")),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		OfferAPIURL:        offerURL,
		OfferBatchURL:      getEnv("OFFER_BATCH_URL", deriveBatchURL(offerURL)),
		OfferAPIToken:      getEnv("OFFER_API_TOKEN", ""),
		OfferTimeout:       mustDuration(getEnv("OFFER_TIMEOUT", "30s")),
		PricingTablePath:   getEnv("PRICING_TABLE_PATH", ""),
		IMAPHost:           getEnv("IMAP_HOST", ""),
		IMAPPort:           mustInt(getEnv("IMAP_PORT", "993")),
		IMAPUsername:       getEnv("IMAP_USERNAME", ""),
		IMAPPassword:       getEnv("IMAP_PASSWORD", ""),
		IMAPFolder:         getEnv("IMAP_FOLDER", "INBOX"),
		InboxPollInterval:  mustDuration(getEnv("INBOX_POLL_INTERVAL", "2m")),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", "noreply@nordflytt.se"),
		OpsEmail:           getEnv("OPS_EMAIL", ""),
		DedupeWindow:       mustDuration(getEnv("LEAD_DEDUPE_WINDOW", "10m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.OfferAPIURL == "" {
		return nil, fmt.Errorf("OFFER_API_URL is required")
	}
	if cfg.OfferTimeout <= 0 {
		return nil, fmt.Errorf("OFFER_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// deriveBatchURL maps ".../create-from-lead" to ".../create-from-lead/bulk".
func deriveBatchURL(offerURL string) string {
	if offerURL == "" {
		return ""
	}
	return strings.TrimRight(offerURL, "/") + "/bulk"
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
