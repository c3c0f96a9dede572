package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"vinreport-web/database"
	"vinreport-web/services/email"
)

type Config struct {
	Database   database.DatabaseConfig
	SMTP       email.SMTPConfig
	Server     ServerConfig
	Redis      RedisConfig
	Session    SessionConfig
	Analytics  AnalyticsConfig
	Stripe     StripeConfig
	PayPal     PayPalConfig
	ThirdParty ThirdPartyConfig
	Contact    ContactConfig
}

// ServerConfig.TrustProxy makes the site honor X-Forwarded-For and
// X-Forwarded-Proto. Enable it only behind a proxy that overwrites them.
type ServerConfig struct {
	Port        string
	Origin      string
	Environment string
	TrustProxy  bool
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type SessionConfig struct {
	Secret     string
	Domain     string
	MaxAge     int
	CSRFSecret string
}

// AnalyticsConfig holds the Google identifiers. Empty values disable the
// corresponding vendor.
type AnalyticsConfig struct {
	TrackingID      string
	APISecret       string
	AdSenseClientID string
}

// StripeConfig.IntentURL is the report backend endpoint that creates a
// payment intent and returns its client secret.
type StripeConfig struct {
	PublishableKey string
	ScriptURL      string
	IntentURL      string
}

type PayPalConfig struct {
	ClientID       string
	HostedButtonID string
	SDKBaseURL     string
}

type ThirdPartyConfig struct {
	LoadTimeout time.Duration
}

type ContactConfig struct {
	Inbox string
}

const (
	defaultPort           = "8080"
	defaultRedisURL       = "redis://localhost:6379/0"
	defaultStripeScript   = "https://js.stripe.com/v3/"
	defaultPayPalSDK      = "https://www.paypal.com/sdk/js"
	defaultHostedButtonID = "Q8XJ2ZL4TPK6N"
	defaultLoadTimeout    = 10 * time.Second
	defaultSessionMaxAge  = 3600

	insecureSessionSecret = "insecure-development-session-key"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", defaultPort),
			Origin:      strings.TrimRight(os.Getenv("SITE_ORIGIN"), "/"),
			Environment: getEnv("APP_ENV", "development"),
			TrustProxy:  getEnvBool("TRUST_PROXY", false),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			Domain:     os.Getenv("SESSION_DOMAIN"),
			MaxAge:     getEnvInt("SESSION_MAX_AGE", defaultSessionMaxAge),
			CSRFSecret: os.Getenv("CSRF_SECRET"),
		},
		Analytics: AnalyticsConfig{
			TrackingID:      os.Getenv("GA_TRACKING_ID"),
			APISecret:       os.Getenv("GA_API_SECRET"),
			AdSenseClientID: os.Getenv("ADSENSE_CLIENT_ID"),
		},
		Stripe: StripeConfig{
			PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			ScriptURL:      getEnv("STRIPE_SCRIPT_URL", defaultStripeScript),
			IntentURL:      os.Getenv("STRIPE_INTENT_URL"),
		},
		PayPal: PayPalConfig{
			ClientID:       os.Getenv("PAYPAL_CLIENT_ID"),
			HostedButtonID: getEnv("PAYPAL_HOSTED_BUTTON_ID", defaultHostedButtonID),
			SDKBaseURL:     getEnv("PAYPAL_SDK_URL", defaultPayPalSDK),
		},
		ThirdParty: ThirdPartyConfig{
			LoadTimeout: getEnvDuration("THIRDPARTY_LOAD_TIMEOUT", defaultLoadTimeout),
		},
		Contact: ContactConfig{
			Inbox: os.Getenv("CONTACT_INBOX"),
		},
	}

	if cfg.Redis.URL == "" {
		cfg.Redis.URL = defaultRedisURL
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}

	// Production never falls back; Validate reports the missing secrets.
	if !cfg.IsProduction() {
		if cfg.Session.Secret == "" {
			log.Printf("Warning: SESSION_SECRET not set, sessions will use an insecure key")
			cfg.Session.Secret = insecureSessionSecret
		}
		if cfg.Session.CSRFSecret == "" {
			cfg.Session.CSRFSecret = cfg.Session.Secret
		}
	}

	log.Printf("Config loaded: env=%s port=%s analytics=%v adsense=%v stripe=%v paypal=%v",
		cfg.Server.Environment,
		cfg.Server.Port,
		cfg.Analytics.TrackingID != "",
		cfg.Analytics.AdSenseClientID != "",
		cfg.Stripe.PublishableKey != "",
		cfg.PayPal.ClientID != "",
	)

	return cfg
}

// Validate refuses settings the deployed build cannot run safely with. Only
// production is checked; development keeps its local fallbacks.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}

	var missing []string
	if c.Session.Secret == "" || c.Session.Secret == insecureSessionSecret {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.Session.CSRFSecret == "" || c.Session.CSRFSecret == insecureSessionSecret {
		missing = append(missing, "CSRF_SECRET")
	}
	if c.Server.Origin == "" {
		missing = append(missing, "SITE_ORIGIN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("production requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the site runs as the deployed build.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// DatabaseEnabled is false when no DB_HOST is configured; contact messages
// are then only emailed.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
