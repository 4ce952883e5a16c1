package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const minJWTSecretLength = 16

// Environment names accepted in APP_ENV
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins    []string
	MetricsEnabled bool

	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	ReconcileSchedule string
	ReportSchedule    string
	ReportRecipients  []string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// loader resolves keys from the process environment first and the optional
// YAML file second.
type loader struct {
	file map[string]string
	errs []string
}

// NewConfig loads configuration from .env, an optional YAML file named by
// CONFIG_FILE and environment variables, in increasing priority.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	l := &loader{file: map[string]string{}}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := l.readFile(path); err != nil {
			return nil, err
		}
	}

	env := strings.ToLower(l.getEnv("APP_ENV", EnvDevelopment))
	defaultOrigins := ""
	if env == EnvDevelopment {
		defaultOrigins = "*"
	}

	cfg := &Config{
		Port:      l.getEnv("PORT", "8080"),
		DBConn:    l.getEnv("DATABASE_URL", ""),
		LogLevel:  l.getEnv("LOG_LEVEL", "info"),
		Env:       env,
		JWTSecret: l.getEnv("JWT_SECRET", ""),
		JWTTTL:    l.getDuration("JWT_TTL", 24*time.Hour),

		CORSOrigins:    splitList(l.getEnv("CORS_ORIGINS", defaultOrigins)),
		MetricsEnabled: l.getBool("METRICS_ENABLED", true),

		Argon2Memory:      uint32(l.getUint("ARGON2_MEMORY_KIB", 64*1024, math.MaxUint32)),
		Argon2Iterations:  uint32(l.getUint("ARGON2_ITERATIONS", 3, math.MaxUint32)),
		Argon2Parallelism: uint8(l.getUint("ARGON2_PARALLELISM", 2, math.MaxUint8)),

		ReconcileSchedule: l.getEnv("RECONCILE_SCHEDULE", "@daily"),
		ReportSchedule:    l.getEnv("REPORT_SCHEDULE", ""),
		ReportRecipients:  splitList(l.getEnv("REPORT_RECIPIENTS", "")),

		SMTPHost:     l.getEnv("SMTP_HOST", ""),
		SMTPPort:     l.getEnv("SMTP_PORT", "587"),
		SMTPUsername: l.getEnv("SMTP_USERNAME", ""),
		SMTPPassword: l.getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  l.getEnv("SENDER_EMAIL", ""),
	}

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(l.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and cross-field constraints
func (c *Config) Validate() error {
	if c.DBConn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be one of development, test, production, got %q", c.Env)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Argon2Memory == 0 || c.Argon2Iterations == 0 || c.Argon2Parallelism == 0 {
		return fmt.Errorf("ARGON2 parameters must be positive")
	}
	if c.ReportSchedule != "" {
		if len(c.ReportRecipients) == 0 {
			return fmt.Errorf("REPORT_RECIPIENTS is required when REPORT_SCHEDULE is set")
		}
		if c.SMTPHost == "" || c.SenderEmail == "" {
			return fmt.Errorf("SMTP_HOST and SENDER_EMAIL are required when REPORT_SCHEDULE is set")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (l *loader) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	for k, v := range raw {
		l.file[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return nil
}

func (l *loader) getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if value, exists := l.file[key]; exists {
		return value
	}
	return defaultVal
}

// getUint reads a non-negative integer no larger than maxVal
func (l *loader) getUint(key string, defaultVal, maxVal uint64) uint64 {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v > maxVal {
		l.errs = append(l.errs, fmt.Sprintf("%s must be an integer between 0 and %d", key, maxVal))
		return defaultVal
	}
	return v
}

func (l *loader) getBool(key string, defaultVal bool) bool {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a boolean", key))
		return defaultVal
	}
	return v
}

func (l *loader) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := l.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a duration like 24h", key))
		return defaultVal
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
