package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink backends.
const (
	SinkSheets = "sheets"
	SinkXLSX   = "xlsx"
)

// Mail backends.
const (
	MailSMTP  = "smtp"
	MailGmail = "gmail"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// Document fetch
	FetchTimeout     time.Duration
	MaxDocumentBytes int64
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string

	// Extraction
	SectionBoundary string

	// PDF
	PDFFallbackPdftotext bool

	// Record sink
	SinkBackend       string
	GoogleSheetID     string
	GoogleClientEmail string
	GooglePrivateKey  string
	SheetsRatePerSec  float64
	XLSXPath          string

	// Webhook
	WebhookURL     string
	WebhookTimeout time.Duration
	WebhookStatus  string
	CandidateName  string
	CandidateEmail string

	// Mail
	MailBackend       string
	MailFrom          string
	MailUsername      string
	MailPassword      string
	SMTPHost          string
	SMTPPort          int
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string

	// Follow-up
	FollowUpHour        int
	FollowUpSendTimeout time.Duration
	FollowUpTTL         time.Duration

	// HTTP
	CORSAllowedOrigin string
	ParseRatePerSec   float64
	ParseRateBurst    int
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", envOr("REACT_APP_PORT", "5000")),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		FetchTimeout:     envDuration("FETCH_TIMEOUT", 15*time.Second),
		MaxDocumentBytes: envInt64("MAX_DOCUMENT_BYTES", 20971520), // 20MB
		S3Region:         os.Getenv("S3_REGION"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),

		SectionBoundary: strings.ToLower(envOr("EXTRACT_SECTION_BOUNDARY", "heading")),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),

		SinkBackend:       strings.ToLower(envOr("SINK_BACKEND", SinkSheets)),
		GoogleSheetID:     envOr("GOOGLE_SHEET_ID", os.Getenv("REACT_APP_GOOGLE_SHEET_ID")),
		GoogleClientEmail: os.Getenv("GOOGLE_CLIENT_EMAIL"),
		GooglePrivateKey:  strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		SheetsRatePerSec:  envFloat("SHEETS_RATE_PER_SEC", 1),
		XLSXPath:          envOr("XLSX_PATH", "applicants.xlsx"),

		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookTimeout: envDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		WebhookStatus:  envOr("WEBHOOK_STATUS", "testing"),
		CandidateName:  os.Getenv("CANDIDATE_NAME"),
		CandidateEmail: os.Getenv("CANDIDATE_EMAIL"),

		MailBackend:       strings.ToLower(envOr("MAIL_BACKEND", MailSMTP)),
		MailFrom:          os.Getenv("MAIL_FROM"),
		MailUsername:      os.Getenv("MAIL_USERNAME"),
		MailPassword:      envOr("MAIL_PASSWORD", os.Getenv("REACT_APP_GMAIL_APP_PASSWORD")),
		SMTPHost:          envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          envInt("SMTP_PORT", 587),
		GmailClientID:     os.Getenv("GMAIL_CLIENT_ID"),
		GmailClientSecret: os.Getenv("GMAIL_CLIENT_SECRET"),
		GmailRefreshToken: os.Getenv("GMAIL_REFRESH_TOKEN"),

		FollowUpHour:        envInt("FOLLOWUP_HOUR", 9),
		FollowUpSendTimeout: envDuration("FOLLOWUP_SEND_TIMEOUT", 30*time.Second),
		FollowUpTTL:         envDuration("FOLLOWUP_TTL", 24*time.Hour),

		CORSAllowedOrigin: envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		ParseRatePerSec:   envFloat("PARSE_RATE_PER_SEC", 5),
		ParseRateBurst:    envInt("PARSE_RATE_BURST", 10),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 20971520
	}
	if cfg.SheetsRatePerSec <= 0 {
		cfg.SheetsRatePerSec = 1
	}
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 10 * time.Second
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.MailUsername
	}
	if cfg.MailUsername == "" {
		cfg.MailUsername = cfg.MailFrom
	}
	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 587
	}
	if cfg.FollowUpHour < 0 || cfg.FollowUpHour > 23 {
		cfg.FollowUpHour = 9
	}
	if cfg.FollowUpSendTimeout <= 0 {
		cfg.FollowUpSendTimeout = 30 * time.Second
	}
	if cfg.FollowUpTTL <= 0 {
		cfg.FollowUpTTL = 24 * time.Hour
	}
	if cfg.ParseRatePerSec <= 0 {
		cfg.ParseRatePerSec = 5
	}
	if cfg.ParseRateBurst <= 0 {
		cfg.ParseRateBurst = 10
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.SectionBoundary {
	case "heading", "legacy":
	default:
		return fmt.Errorf("EXTRACT_SECTION_BOUNDARY must be heading or legacy, got %q", c.SectionBoundary)
	}

	switch c.SinkBackend {
	case SinkSheets:
		if c.GoogleSheetID == "" {
			return fmt.Errorf("GOOGLE_SHEET_ID is required")
		}
		if c.GoogleClientEmail == "" || c.GooglePrivateKey == "" {
			return fmt.Errorf("GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required")
		}
	case SinkXLSX:
		if c.XLSXPath == "" {
			return fmt.Errorf("XLSX_PATH is required")
		}
	default:
		return fmt.Errorf("unknown SINK_BACKEND %q", c.SinkBackend)
	}

	if c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}

	switch c.MailBackend {
	case MailSMTP:
		if c.MailFrom == "" || c.MailPassword == "" {
			return fmt.Errorf("MAIL_FROM and MAIL_PASSWORD are required for smtp mail")
		}
	case MailGmail:
		if c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "" {
			return fmt.Errorf("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN are required for gmail mail")
		}
	default:
		return fmt.Errorf("unknown MAIL_BACKEND %q", c.MailBackend)
	}
	return nil
}

// S3Enabled reports whether s3:// document references can be fetched.
func (c Config) S3Enabled() bool {
	return c.S3Region != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
