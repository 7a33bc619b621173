// Package config provides configuration loading and management for the country registry server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/country-registry/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment variables read through viper
	EnvPrefix = "COUNTRY_REGISTRY"

	// DefaultPort is the port used when neither the PORT variable nor the config file sets one
	DefaultPort = 3000
)

const (
	// StorageTypeMemory keeps the registry in memory only
	StorageTypeMemory = "memory"

	// StorageTypeFile mirrors the registry to a JSON file
	StorageTypeFile = "file"

	// StorageTypeBolt mirrors the registry to a bbolt database file
	StorageTypeBolt = "bolt"

	// StorageTypeDatabase mirrors the registry to a PostgreSQL table
	StorageTypeDatabase = "database"
)

const (
	defaultCountriesFile = "./data/countries.json"
	defaultBoltFile      = "./data/countries.db"
	defaultBoltTimeout   = time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Port is the TCP port the HTTP server listens on
	Port int `yaml:"port,omitempty"`

	// Storage selects how the registry is persisted between restarts
	Storage *StorageConfig `yaml:"storage,omitempty"`

	// Telemetry configures tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// StorageConfig defines the persistence strategy of the registry
type StorageConfig struct {
	// Type is one of memory, file, bolt or database. Defaults to memory.
	Type string `yaml:"type,omitempty"`

	File     *FileConfig     `yaml:"file,omitempty"`
	Bolt     *BoltConfig     `yaml:"bolt,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// FileConfig defines the JSON file persistence settings
type FileConfig struct {
	// Path is the location of the JSON snapshot. Defaults to ./data/countries.json
	Path string `yaml:"path,omitempty"`
}

// BoltConfig defines the bbolt persistence settings
type BoltConfig struct {
	// Path is the location of the bbolt database. Defaults to ./data/countries.db
	Path string `yaml:"path,omitempty"`

	// Timeout is how long to wait for the database file lock (e.g., "1s")
	Timeout string `yaml:"timeout,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// ConnectTimeout bounds the retries made while the database comes up (e.g., "30s")
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from COUNTRY_REGISTRY_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// NewDefaultConfig returns the configuration used when no config file is given
func NewDefaultConfig() *Config {
	return &Config{
		Port:    DefaultPort,
		Storage: &StorageConfig{Type: StorageTypeMemory},
	}
}

// LoadConfig loads and parses configuration from a YAML file.
// Without a path option it returns the default configuration.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetPort returns the configured port, using DefaultPort if not specified
func (c *Config) GetPort() int {
	if c == nil || c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

// GetStorageType returns the storage type, using memory if not specified
func (c *Config) GetStorageType() string {
	if c == nil || c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeMemory
	}
	return c.Storage.Type
}

// GetFilePath returns the JSON snapshot path
func (c *Config) GetFilePath() string {
	if c == nil || c.Storage == nil || c.Storage.File == nil || c.Storage.File.Path == "" {
		return defaultCountriesFile
	}
	return c.Storage.File.Path
}

// GetBoltPath returns the bbolt database path
func (c *Config) GetBoltPath() string {
	if c == nil || c.Storage == nil || c.Storage.Bolt == nil || c.Storage.Bolt.Path == "" {
		return defaultBoltFile
	}
	return c.Storage.Bolt.Path
}

// GetBoltTimeout returns how long to wait for the bbolt file lock
func (c *Config) GetBoltTimeout() time.Duration {
	if c == nil || c.Storage == nil || c.Storage.Bolt == nil || c.Storage.Bolt.Timeout == "" {
		return defaultBoltTimeout
	}
	d, err := time.ParseDuration(c.Storage.Bolt.Timeout)
	if err != nil {
		return defaultBoltTimeout
	}
	return d
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}

	var errs []error
	if err := c.validateStorage(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) validateStorage() error {
	switch c.GetStorageType() {
	case StorageTypeMemory, StorageTypeFile:
		return nil
	case StorageTypeBolt:
		if c.Storage.Bolt != nil && c.Storage.Bolt.Timeout != "" {
			if _, err := time.ParseDuration(c.Storage.Bolt.Timeout); err != nil {
				return fmt.Errorf("bolt.timeout must be a valid duration (e.g., '1s'): %w", err)
			}
		}
		return nil
	case StorageTypeDatabase:
		return validateDatabaseConfig(c.Storage.Database)
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
}

func validateDatabaseConfig(db *DatabaseConfig) error {
	if db == nil {
		return fmt.Errorf("database configuration is required when type is %s", StorageTypeDatabase)
	}
	if db.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if db.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if db.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if db.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	for name, value := range map[string]string{
		"connMaxLifetime": db.ConnMaxLifetime,
		"connectTimeout":  db.ConnectTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("database.%s must be a valid duration: %w", name, err)
		}
	}
	return nil
}
