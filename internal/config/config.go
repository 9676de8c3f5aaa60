package config

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	AppURL      string
	Port        string
	ContentPath string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Session
	SessionSecret string
	SessionExpiry time.Duration

	// Table Store (Baserow REST)
	BaserowAPIURL           string
	BaserowToken            string
	BaserowAdminToken       string // Used for writes (register, user admin); falls back to BaserowToken
	BaserowUserTableID      string
	BaserowBlogTableID      string
	BaserowPortfolioTableID string
	UserFields              UserFields

	// File API (PHP endpoints on the web space)
	FileAPIBaseURL      string
	FileAPIToken        string
	FileOperationsToken string
	UpstreamTimeout     time.Duration

	// Galleries
	ArchiveAllowedHosts   []string // Empty means any host
	GalleryFailClosed     bool
	LegacyCredentialsFile string
	PortfolioStore        string // "db" or "tablestore"
	CORSAllowOrigin       string

	// Email
	EmailFrom    string
	ResendAPIKey string
	AdminEmail   string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible, optional: blog cover uploads are disabled without a bucket)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

// UserFields names the user table columns (user_field_names=true).
type UserFields struct {
	Username string
	Email    string
	Password string
	Role     string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:     envString("APP_NAME", "TONBAND Leipzig"),
		AppEnv:      envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:      envRequired("APP_URL"),
		Port:        envString("PORT", "8090"),
		ContentPath: envString("CONTENT_PATH", "content"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/tonband.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		SessionSecret: envRequired("SESSION_SECRET"),
		SessionExpiry: envDuration("SESSION_EXPIRY", 24*time.Hour),

		BaserowAPIURL:           envString("BASEROW_API_URL", "https://api.baserow.io/api"),
		BaserowToken:            envRequired("BASEROW_TOKEN"),
		BaserowAdminToken:       envString("BASEROW_ADMIN_TOKEN", ""),
		BaserowUserTableID:      envString("BASEROW_USER_TABLE_ID", "669"),
		BaserowBlogTableID:      envString("BASEROW_BLOG_TABLE_ID", ""),
		BaserowPortfolioTableID: envString("BASEROW_PORTFOLIO_TABLE_ID", "668"),
		UserFields: UserFields{
			Username: envString("BASEROW_FIELD_USERNAME", "username"),
			Email:    envString("BASEROW_FIELD_EMAIL", "e-mail"),
			Password: envString("BASEROW_FIELD_PASSWORD", "passwort"),
			Role:     envString("BASEROW_FIELD_ROLE", "role"),
		},

		FileAPIBaseURL:  envString("FILE_API_BASE_URL", "https://tonbandleipzig.de/tonband"),
		FileAPIToken:    envRequired("TONBAND_API_TOKEN"),
		UpstreamTimeout: envDuration("UPSTREAM_TIMEOUT", 30*time.Second),

		GalleryFailClosed:     envBool("GALLERY_FAIL_CLOSED", false),
		LegacyCredentialsFile: envString("LEGACY_CREDENTIALS_FILE", ""),
		PortfolioStore:        envString("PORTFOLIO_STORE", "db"),
		CORSAllowOrigin:       envString("CORS_ALLOW_ORIGIN", "*"),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@tonbandleipzig.de"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		AdminEmail:   envString("ADMIN_EMAIL", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	cfg.FileOperationsToken = envString("FILE_OPERATIONS_TOKEN", cfg.FileAPIToken)
	if cfg.BaserowAdminToken == "" {
		cfg.BaserowAdminToken = cfg.BaserowToken
	}
	cfg.ArchiveAllowedHosts = archiveHosts(envString("ARCHIVE_ALLOWED_HOSTS", ""), cfg.FileAPIBaseURL)

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.SessionSecret) < 32 {
		slog.Error("production deployment requires SESSION_SECRET of at least 32 bytes")
		os.Exit(1)
	}
}

// archiveHosts parses ARCHIVE_ALLOWED_HOSTS. "*" allows any host, an empty
// value restricts exports to the File API host.
func archiveHosts(raw, fileAPIBase string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return nil
	}
	if raw == "" {
		u, err := url.Parse(fileAPIBase)
		if err != nil || u.Hostname() == "" {
			return nil
		}
		return []string{u.Hostname()}
	}
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, strings.ToLower(h))
		}
	}
	return hosts
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// S3Enabled reports whether blog cover uploads can be stored.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Tokens, secrets and connection strings are excluded.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:        c.AppName,
		AppEnv:         c.AppEnv,
		AppURL:         c.AppURL,
		Port:           c.Port,
		FileAPIBaseURL: c.FileAPIBaseURL,
		EmailFrom:      c.EmailFrom,
		S3Endpoint:     c.S3Endpoint, // Needed for CSP policies
	}
}
