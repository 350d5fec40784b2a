// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all runtime configuration for the board service.
type Config struct {
	Port     string
	GRPCPort string

	StoreDriver   string
	DatabaseURL   string
	RunMigrations bool
	RedisURL      string

	NATSURL         string
	NATSConnTimeout time.Duration

	JWTSecret       string
	SigningSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerifyTokenTTL  time.Duration
	VerifyResendAge time.Duration

	CloudinaryURL  string
	ResumeFolder   string
	MaxResumeBytes int64

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	MailerEnabled bool

	PublicBaseURL string

	AuthRateLimit  int
	AuthRateWindow time.Duration
	TrustedProxies []netip.Prefix

	OTLPEndpoint string
	LogLevel     string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "9090"),

		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RunMigrations: getBool("RUN_MIGRATIONS", true),
		RedisURL:      os.Getenv("REDIS_URL"),

		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		SigningSecret:   os.Getenv("SIGNING_SECRET"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerifyTokenTTL:  getDuration("VERIFY_TOKEN_TTL", time.Hour),
		VerifyResendAge: getDuration("VERIFY_RESEND_MAX_AGE", 24*time.Hour),

		CloudinaryURL:  os.Getenv("CLOUDINARY_URL"),
		ResumeFolder:   getEnv("RESUME_FOLDER", "resumes"),
		MaxResumeBytes: int64(getInt("MAX_RESUME_BYTES", 5<<20)),

		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      getEnv("SMTP_FROM", "no-reply@jobportal.local"),
		MailerEnabled: getBool("MAILER_ENABLED", true),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getDuration("AUTH_RATE_WINDOW", time.Minute),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("SIGNING_SECRET is required")
	}
	if cfg.CloudinaryURL == "" {
		return nil, fmt.Errorf("CLOUDINARY_URL is required")
	}
	proxies, err := parsePrefixes(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if cfg.MaxResumeBytes <= 0 {
		return nil, fmt.Errorf("MAX_RESUME_BYTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parsePrefixes reads a comma-separated list of CIDRs or bare addresses.
func parsePrefixes(list string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
