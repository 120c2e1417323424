package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	SessionSecret   []byte
	SessionSameSite http.SameSite
	SessionSecure   bool
	SessionTTL      time.Duration

	StaticDir     string
	AuthRateLimit float64

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	sameSite, err := ParseSameSite(EnvDefault("SESSION_COOKIE_SAMESITE", "Lax"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "sneaker_shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: EnvDefault("DATABASE_URL", "sqlite://ecommerce.db"),

		SessionSecret:   []byte(os.Getenv("SESSION_SECRET")),
		SessionSameSite: sameSite,
		SessionSecure:   EnvBoolDefault("SESSION_COOKIE_SECURE", false),
		SessionTTL:      EnvDurationDefault("SESSION_TTL", 7*24*time.Hour),

		StaticDir:     EnvDefault("STATIC_DIR", "static"),
		AuthRateLimit: EnvFloatDefault("AUTH_RATE_LIMIT", 5),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing critical setting at once.
func (c *Config) Validate() error {
	var missing []string

	if len(c.SessionSecret) == 0 {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.SessionSameSite == http.SameSiteNoneMode && !c.SessionSecure {
		return errors.New("SESSION_COOKIE_SAMESITE=None requires SESSION_COOKIE_SECURE=true")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid SESSION_COOKIE_SAMESITE %q", v)
	}
}
