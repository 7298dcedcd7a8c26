package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/shipref/internal/archive"
	"github.com/agentstation/shipref/internal/catalog"
	"github.com/agentstation/shipref/pkg/constants"
	pkgerrors "github.com/agentstation/shipref/pkg/errors"
)

// Store backends accepted by configuration.
const (
	BackendFiles    = "files"
	BackendPostgres = "postgres"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog
	CatalogSource string
	CatalogPath   string
	CatalogTable  string
	OverridesPath string

	// Document store
	StoreBackend string
	StorePath    string
	StoreTable   string
	DatabaseURL  string

	// Migration
	PersistRetries int
	ReportFormat   string
	ReportFile     string

	// Report archive
	Archive archive.Config

	// Logging configuration
	LogLevel    string // from --log-level, wins over everything
	EnvLogLevel string // from LOG_LEVEL, loses to -v and -q
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (SHIPREF_CATALOG_SOURCE, DATABASE_URL, ...)
// 3. .env files
// 4. Config file (configFile, or ~/.shipref.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("shipref")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindEnvAliases(v); err != nil {
		return nil, pkgerrors.NewConfigError("env", "bind environment aliases", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.NewConfigError("file", "read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, pkgerrors.NewConfigError("file", "read config", err)
			}
		}
	}

	config := &Config{
		ConfigFile: v.ConfigFileUsed(),

		CatalogSource: v.GetString("catalog.source"),
		CatalogPath:   v.GetString("catalog.path"),
		CatalogTable:  v.GetString("catalog.table"),
		OverridesPath: v.GetString("overrides.path"),

		StoreBackend: v.GetString("store.backend"),
		StorePath:    v.GetString("store.path"),
		StoreTable:   v.GetString("store.table"),
		DatabaseURL:  v.GetString("database.url"),

		PersistRetries: v.GetInt("persist.retries"),
		ReportFormat:   v.GetString("report.format"),
		ReportFile:     v.GetString("report.file"),

		Archive: archive.Config{
			Endpoint:  v.GetString("archive.endpoint"),
			AccessKey: v.GetString("archive.access_key"),
			SecretKey: v.GetString("archive.secret_key"),
			Bucket:    v.GetString("archive.bucket"),
			Prefix:    v.GetString("archive.prefix"),
			UseSSL:    v.GetBool("archive.use_ssl"),
		},

		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", v.GetString("log.format")),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", v.GetString("log.output")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.source", catalog.KindEmbedded)
	v.SetDefault("catalog.table", constants.DefaultCatalogTable)
	v.SetDefault("store.backend", BackendFiles)
	v.SetDefault("store.path", ".")
	v.SetDefault("store.table", constants.DefaultDocumentsTable)
	v.SetDefault("persist.retries", constants.DefaultPersistRetries)
	v.SetDefault("archive.prefix", constants.DefaultArchivePrefix)
	v.SetDefault("archive.use_ssl", true)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// bindEnvAliases binds conventional variable names that carry no prefix.
func bindEnvAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"database.url":       {"SHIPREF_DATABASE_URL", "DATABASE_URL"},
		"archive.endpoint":   {"SHIPREF_ARCHIVE_ENDPOINT", "MINIO_ENDPOINT"},
		"archive.access_key": {"SHIPREF_ARCHIVE_ACCESS_KEY", "MINIO_ACCESS_KEY"},
		"archive.secret_key": {"SHIPREF_ARCHIVE_SECRET_KEY", "MINIO_SECRET_KEY"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks enumerated values. Settings that only one component
// needs, such as the database URL, are checked when it is opened.
func (c *Config) Validate() error {
	switch c.CatalogSource {
	case catalog.KindEmbedded, catalog.KindFile, catalog.KindPostgres:
	default:
		return pkgerrors.NewValidationError("catalog.source", c.CatalogSource,
			"must be one of: embedded, file, postgres")
	}
	switch c.StoreBackend {
	case BackendFiles, BackendPostgres:
	default:
		return pkgerrors.NewValidationError("store.backend", c.StoreBackend,
			"must be one of: files, postgres")
	}
	if c.PersistRetries < 0 {
		return pkgerrors.NewValidationError("persist.retries", c.PersistRetries,
			"must be non-negative")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// OutputFormat returns the report format: the --format flag, then
// report.format, then empty for auto-detection.
func (c *Config) OutputFormat() string {
	if c.Format != "" {
		return c.Format
	}
	return c.ReportFormat
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env.local",
		".env",
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(filepath.Clean(envFile)); err == nil {
			_ = godotenv.Load(envFile)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
