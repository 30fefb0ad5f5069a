package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every knob the server reads from the environment.
// A .env file is loaded first when present, real environment wins.
type Config struct {
	DBURL      string
	ListenAddr string
	JWTSecret  string
	CSRFKey    string

	// BaseURL is the absolute origin used in confirmation and
	// password-reset links, e.g. https://simeta.haisyam.my.id
	BaseURL string

	// AllowedEmailDomains gates registration and password-reset
	// requests. Empty means any domain is accepted.
	AllowedEmailDomains []string

	// SMTP settings; empty SMTPAddr selects the log-only mailer.
	SMTPAddr string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Google OAuth; empty client id disables the /auth/google routes.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional outside local development
		slog.Debug("no_dotenv_file", "error", err)
	}

	cfg := &Config{
		DBURL:               os.Getenv("DB_URL"),
		ListenAddr:          getenvDefault("LISTEN_ADDR", ":8080"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CSRFKey:             os.Getenv("CSRF_KEY"),
		BaseURL:             getenvDefault("BASE_URL", "http://localhost:8080"),
		AllowedEmailDomains: splitDomains(getenvDefault("ALLOWED_EMAIL_DOMAINS", "gmail.com,haisyam.my.id")),
		SMTPAddr:            os.Getenv("SMTP_ADDR"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:   os.Getenv("GOOGLE_CALLBACK_URL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.CSRFKey == "" {
		return errors.New("CSRF_KEY is required")
	}
	return nil
}

// GoogleEnabled reports whether OAuth login routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// DomainAllowed checks an email address against the allow-list.
// The comparison uses the part after the last '@', lowercased.
func (c *Config) DomainAllowed(email string) bool {
	if len(c.AllowedEmailDomains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range c.AllowedEmailDomains {
		if domain == d {
			return true
		}
	}
	return false
}

func splitDomains(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
