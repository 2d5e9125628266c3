package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"flipover-auth"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MongoURI      string `env:"MONGO_URI,required"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"flipover"`
	RedisURL      string `env:"REDIS_URL,required"`

	// JWTSecret signs every issued token. There is no embedded fallback; the
	// process refuses to start without it.
	JWTSecret       string        `env:"JWT_SECRET,required"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"30m"`
	LinkTokenTTL    time.Duration `env:"LINK_TOKEN_TTL" envDefault:"5m"`

	// ClientURL is the base URL of the frontend that activation and
	// password-reset links point at.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioVerifySID  string `env:"TWILIO_VERIFY_SID"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@flipover.io"`

	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
