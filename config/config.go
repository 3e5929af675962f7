package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Spreadsheet  SpreadsheetConfig
	Layout       LayoutConfig
	Verification VerificationConfig
	Report       ReportConfig
	RateLimit    RateLimitConfig
	Session      SessionConfig
	Storage      StorageConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// SpreadsheetConfig describes where product master data lives in the workbook
type SpreadsheetConfig struct {
	Sheet      string   `mapstructure:"sheet"` // empty selects the first sheet
	ItemColumn string   `mapstructure:"item_column"`
	Columns    []string `mapstructure:"columns"`
}

// LayoutConfig holds layout file settings
type LayoutConfig struct {
	Extension string `mapstructure:"extension"`
}

// VerificationConfig tunes the verification run
type VerificationConfig struct {
	Workers      int  `mapstructure:"workers"`
	DebugLogging bool `mapstructure:"debug_logging"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Format    string `mapstructure:"format"` // markdown, csv, html or pdf
	OutputDir string `mapstructure:"output_dir"` // empty saves next to the layouts dir
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// SessionConfig holds web session settings
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds object storage settings for published reports
type StorageConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	Region    string        `mapstructure:"region"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// DefaultColumns are the spreadsheet columns verified when none are configured.
// Series and packaging type are usually rendered as images, so they are left out.
var DefaultColumns = []string{
	"Item#",
	"EAN",
	"Name ENG",
	"Name in all our languages",
	"address under EAN/barcode",
	"origin (next to EAN/barcode)",
	"Batch no:",
}

// ReportFormats lists the supported report formats
var ReportFormats = []string{"markdown", "csv", "html", "pdf"}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags loads configuration like Load, letting changed command-line
// flags override file and environment values
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/layoutverifier/")

	// Environment variable settings
	v.SetEnvPrefix("LAYOUTVERIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("unable to bind flags: %w", err)
		}
	}

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// flagKeys maps CLI flag names to configuration keys
var flagKeys = map[string]string{
	"ext":       "layout.extension",
	"workers":   "verification.workers",
	"debug":     "verification.debug_logging",
	"log-level": "log.level",
	"sheet":     "spreadsheet.sheet",
}

// BindFlags binds the known CLI flags present in flags to their configuration keys
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Spreadsheet defaults
	v.SetDefault("spreadsheet.sheet", "")
	v.SetDefault("spreadsheet.item_column", "Item#")
	v.SetDefault("spreadsheet.columns", DefaultColumns)

	// Layout defaults
	v.SetDefault("layout.extension", ".ai")

	// Verification defaults
	v.SetDefault("verification.workers", 1)
	v.SetDefault("verification.debug_logging", false)

	// Report defaults
	v.SetDefault("report.format", "markdown")
	v.SetDefault("report.output_dir", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	// Session defaults
	v.SetDefault("session.ttl", "2h")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "layout-reports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.url_expiry", "24h")
}

// IsReportFormat reports whether format names a supported report format
func IsReportFormat(format string) bool {
	for _, f := range ReportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// validate validates the configuration
func validate(config *Config) error {
	if !IsReportFormat(config.Report.Format) {
		return fmt.Errorf("report format must be one of %v, got: %s", ReportFormats, config.Report.Format)
	}

	if config.Verification.Workers < 1 {
		return fmt.Errorf("verification workers must be at least 1, got: %d", config.Verification.Workers)
	}

	if strings.TrimSpace(config.Spreadsheet.ItemColumn) == "" {
		return fmt.Errorf("spreadsheet item column is required (set LAYOUTVERIFIER_SPREADSHEET_ITEM_COLUMN)")
	}

	if !strings.HasPrefix(config.Layout.Extension, ".") {
		return fmt.Errorf("layout extension must start with '.', got: %q", config.Layout.Extension)
	}

	if config.Storage.Enabled && (config.Storage.Endpoint == "" || config.Storage.Bucket == "") {
		return fmt.Errorf("storage endpoint and bucket are required when storage is enabled")
	}

	return nil
}
