package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is the development token secret. Production refuses it.
const DefaultJWTSecret = "your-secret-key-change-in-production"

const minProductionSecretLength = 32

type Config struct {
	Environment    string // ENV: production, development, etc.
	Port           string
	Host           string   // Raw HOST env (e.g. https://api.solace.care)
	AllowedHost    string   // Hostname only for strict host check (production only)
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	FrontendURL    string
	TrustProxy     bool

	PostgresURI    string
	RedisURI       string
	MongoURI       string
	MigrateOnStart bool

	JWTSecret     string
	SessionTTL    time.Duration
	SessionCookie string
	EncryptionKey string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MeiliURL    string
	MeiliAPIKey string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	LogLevel string
	LogDev   bool
	LogFile  string

	WorkerEnabled     bool
	WorkerConcurrency int
	ReminderSchedule  string
	ReminderLead      time.Duration
	AuditRetention    time.Duration

	ForumAutoApprove bool
	NodeID           int64
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = bareHost(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", ""), getEnv("FRONTEND_URL_3", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	// A backend on api.example.com serves https://example.com and https://www.example.com.
	if h := bareHost(host); h != "" && h != "localhost" {
		parts := strings.Split(h, ".")
		if len(parts) >= 2 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(allowedOrigins, origin) {
					allowedOrigins = append(allowedOrigins, origin)
				}
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		Host:           host,
		AllowedHost:    allowedHost,
		AllowedOrigins: allowedOrigins,
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),

		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/solace?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/solace")),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "solace_session"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		MeiliURL:    getEnv("MEILI_URL", ""),
		MeiliAPIKey: getEnv("MEILI_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Solace"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getEnvBool("LOG_DEV", env != "production"),
		LogFile:  getEnv("LOG_FILE", ""),

		WorkerEnabled:     getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "@every 15m"),
		ReminderLead:      getEnvDuration("REMINDER_LEAD", time.Hour),
		AuditRetention:    getEnvDuration("AUDIT_RETENTION", 90*24*time.Hour),

		ForumAutoApprove: getEnvBool("FORUM_AUTO_APPROVE", false),
		NodeID:           int64(getEnvInt("NODE_ID", 1)),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// Validate rejects settings that are unsafe to run with in production.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if len(c.JWTSecret) < minProductionSecretLength {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

// CloudinaryConfigured reports whether all three Cloudinary credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// bareHost strips scheme, path and port: https://api.solace.care:443/x -> api.solace.care
func bareHost(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go durations ("90m", "168h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
