package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Shift     ShiftConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig points at the hosted Postgres instance.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// MongoDBConfig holds settings for the shift report archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig is used for cross-instance locks. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds the secret shared with the hosted auth provider.
type AuthConfig struct {
	JWTSecret     string
	InvitationTTL time.Duration
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	OwnerPhone    string
}

// Enabled reports whether outbound messaging is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to mirror shift reports to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ReportRange     string
}

// Enabled reports whether the spreadsheet sink is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ShiftConfig describes both shift boundary schemes. The timezone is checked
// when the resolvers are built, not here.
type ShiftConfig struct {
	Timezone             string
	DashboardMorningHour int
	DashboardNightHour   int
	InventoryMorningHour int
	InventoryNightHour   int
	InventoryFetchMode   string
	InventoryFetchOffset int
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
	RecheckSpec string
	LockTTL     time.Duration
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// a missing .env is fine when the environment is set directly
		_ = godotenv.Load()
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getenvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getenvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(intVar("DATABASE_MAX_CONNS", 10)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bakery"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intVar("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			InvitationTTL: durationVar("INVITATION_TTL", 72*time.Hour),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OwnerPhone:    os.Getenv("WHATSAPP_OWNER_PHONE"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORTS_ID"),
			ReportRange:     getenvWithDefault("GOOGLE_SHEET_REPORTS_RANGE", "Shifts!A:H"),
		},
		Shift: ShiftConfig{
			Timezone:             getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			DashboardMorningHour: intVar("SHIFT_DASHBOARD_MORNING_HOUR", 6),
			DashboardNightHour:   intVar("SHIFT_DASHBOARD_NIGHT_HOUR", 14),
			InventoryMorningHour: intVar("SHIFT_INVENTORY_MORNING_HOUR", 10),
			InventoryNightHour:   intVar("SHIFT_INVENTORY_NIGHT_HOUR", 22),
			InventoryFetchMode:   getenvWithDefault("SHIFT_INVENTORY_FETCH_MODE", "rolling_offset"),
			InventoryFetchOffset: intVar("SHIFT_INVENTORY_FETCH_OFFSET_HOUR", 15),
		},
		Scheduler: SchedulerConfig{
			RecheckSpec: getenvWithDefault("SHIFT_RECHECK_SCHEDULE", "@every 1m"),
			LockTTL:     durationVar("SHIFT_CLOSE_LOCK_TTL", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if len(c.Server.AllowedOrigins) == 0 {
		return errors.New("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	if c.Database.URL == "" {
		return errors.New("DATABASE_URL must be provided")
	}

	if c.Database.MaxConns <= 0 {
		return errors.New("DATABASE_MAX_CONNS must be positive")
	}

	if c.MongoDB.URI == "" || c.MongoDB.DBName == "" {
		return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided")
	}

	switch {
	case c.Auth.JWTSecret == "":
		return errors.New("AUTH_JWT_SECRET must be provided")
	case len(c.Auth.JWTSecret) < 16:
		return errors.New("AUTH_JWT_SECRET must be at least 16 characters")
	case c.Auth.InvitationTTL <= 0:
		return errors.New("INVITATION_TTL must be positive")
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.VerifyToken == "" {
			return errors.New("META_VERIFY_TOKEN must be provided")
		}
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.ReportRange == "" {
		return errors.New("GOOGLE_SHEET_REPORTS_RANGE must not be empty")
	}

	if c.Scheduler.RecheckSpec == "" {
		return errors.New("SHIFT_RECHECK_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
