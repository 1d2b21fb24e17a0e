package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	// DefaultWhatsAppNumber is served by /api/config when WHATSAPP_NUMBER is unset
	DefaultWhatsAppNumber = "5491123456789"
	// DefaultContactEmail is served by /api/config and receives inquiries when CONTACT_EMAIL is unset
	DefaultContactEmail = "maria.kuris@corporativo.com"
)

type Config struct {
	ServerPort  string `validate:"required,numeric"`
	Environment string `validate:"oneof=development production test"`
	AppURL      string `validate:"required,url"`
	// Email delivery
	EmailProvider  string `validate:"oneof=resend sendgrid ses"`
	ResendAPIKey   string `validate:"required_if=EmailProvider resend EmailTestMode false"`
	SendGridAPIKey string `validate:"required_if=EmailProvider sendgrid EmailTestMode false"`
	AWSRegion      string `validate:"required_if=EmailProvider ses"`
	SESAccessKeyID string
	SESSecretKey   string
	EmailFrom      string `validate:"required,email"`
	EmailFromName  string
	EmailTestMode  bool // When true, emails are logged instead of sent
	// Public contact details
	ContactEmail   string `validate:"required,email"`
	WhatsAppNumber string `validate:"required"`
	// Other
	AllowedOrigins []string
	BodyLimit      string
	// Cloudflare Turnstile
	TurnstileSiteKey   string
	TurnstileSecretKey string
	// Rate limiting on the contact endpoint
	ContactRateLimit  int           `validate:"gt=0"`
	ContactRateWindow time.Duration `validate:"gt=0"`
	RedisURL          string
	// Delivery log (disabled when both are empty)
	DeliveryLogPath  string
	TursoDatabaseURL string
	TursoAuthToken   string
	// Logging
	LogDir   string
	LogLevel string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load reads an optional .env file and the process environment.
// Missing values fall back to defaults; the result is validated before use.
func Load(log *zap.SugaredLogger) (*Config, error) {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file found, using system environment variables")
	}

	l := loader{log: log}
	cfg := &Config{
		ServerPort:         l.getEnv("SERVER_PORT", "8080"),
		Environment:        l.getEnv("ENVIRONMENT", "development"),
		AppURL:             l.getEnv("APP_URL", "http://localhost:8080"),
		EmailProvider:      strings.ToLower(l.getEnv("EMAIL_PROVIDER", "resend")),
		ResendAPIKey:       l.getSecret("RESEND_API_KEY"),
		SendGridAPIKey:     l.getSecret("SENDGRID_API_KEY"),
		AWSRegion:          l.getEnv("AWS_REGION", ""),
		SESAccessKeyID:     l.getSecret("SES_ACCESS_KEY_ID"),
		SESSecretKey:       l.getSecret("SES_SECRET_ACCESS_KEY"),
		EmailFrom:          l.getEnv("FROM_EMAIL", "onboarding@resend.dev"),
		EmailFromName:      l.getEnv("FROM_NAME", "Consulta Corporativa"),
		EmailTestMode:      l.getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		ContactEmail:       l.getEnv("CONTACT_EMAIL", DefaultContactEmail),
		WhatsAppNumber:     l.getEnv("WHATSAPP_NUMBER", DefaultWhatsAppNumber),
		AllowedOrigins:     strings.Split(l.getEnv("ALLOWED_ORIGINS", "*"), ","),
		BodyLimit:          l.getEnv("BODY_LIMIT", "64K"),
		TurnstileSiteKey:   l.getEnv("TURNSTILE_SITE_KEY", ""),
		TurnstileSecretKey: l.getSecret("TURNSTILE_SECRET_KEY"),
		ContactRateLimit:   l.getEnvInt("CONTACT_RATE_LIMIT", 5),
		ContactRateWindow:  l.getEnvDuration("CONTACT_RATE_WINDOW", 10*time.Minute),
		RedisURL:           l.getSecret("REDIS_URL"),
		DeliveryLogPath:    l.getEnv("DELIVERY_LOG_PATH", ""),
		TursoDatabaseURL:   l.getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:     l.getSecret("TURSO_AUTH_TOKEN"),
		LogDir:             l.getEnv("LOG_DIR", "logs"),
		LogLevel:           strings.ToLower(l.getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and returns the first violation.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DeliveryLogEnabled reports whether delivery attempts should be recorded.
func (c *Config) DeliveryLogEnabled() bool {
	return c.DeliveryLogPath != "" || c.TursoDatabaseURL != ""
}

type loader struct {
	log *zap.SugaredLogger
}

func (l loader) getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		l.log.Debugw("using default value", "key", key, "value", defaultValue)
		return defaultValue
	}
	return value
}

// getSecret never logs the value
func (l loader) getSecret(key string) string {
	value := os.Getenv(key)
	if value == "" {
		l.log.Debugw("secret not set", "key", key)
	}
	return value
}

func (l loader) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		l.log.Warnw("unrecognised boolean, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
}

func (l loader) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.log.Warnw("invalid integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func (l loader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.log.Warnw("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
