package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SeriesSource       string
	SettingsSource     string
	DatabaseURL        string
	HTTPPort           string
	AdminAPIKey        string
	CORSOrigins        []string
	SourceTimeout      time.Duration
	Demo               bool
	LogLevel           string
	SpreadsheetID      string
	GoogleCredentials  string
	SheetsSyncInterval time.Duration
	DocBaseURL         string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		SeriesSource:       envOrDefault("SERIES_SOURCE", "assets/data/visualization_data.json"),
		SettingsSource:     envOrDefault("SETTINGS_SOURCE", "assets/data/settings.json"),
		DatabaseURL:        envOrDefault("DATABASE_URL", ""),
		HTTPPort:           envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:        envOrDefaultWarn("ADMIN_API_KEY", ""),
		CORSOrigins:        envOrDefaultList("CORS_ORIGINS", []string{"*"}),
		SourceTimeout:      envOrDefaultDuration("SOURCE_TIMEOUT", 30*time.Second),
		Demo:               envOrDefaultBool("DEMO", false),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		SpreadsheetID:      envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentials:  envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		SheetsSyncInterval: envOrDefaultDuration("SHEETS_SYNC_INTERVAL", 1*time.Hour),
		DocBaseURL:         envOrDefault("DOC_BASE_URL", ""),
	}
}

// SheetsEnabled reports whether both Google Sheets settings are present.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.GoogleCredentials != ""
}

// SetupLogger installs the default slog logger at the named level
// (debug, info, warn, error). Output goes to stderr as text.
func SetupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("env var not set", "key", key)
	}
	return v
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
