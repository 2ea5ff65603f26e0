// Package config loads the settings file that drives an export.
//
// The file is YAML. A JSON settings file is also accepted, since JSON is a
// subset of YAML, so the plain settings.json layout works unchanged:
//
//	{"database": "Sales", "host": "localhost", "port": 1433,
//	 "username": "sa", "password": "...", "output": "out.xlsx"}
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/filestore"
	"github.com/koustreak/sqlsheet/internal/logger"
	"go.yaml.in/yaml/v3"
)

// Settings is the top-level settings file.
type Settings struct {
	Driver   string `yaml:"driver"` // sqlserver, postgres, mysql
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TrustCert skips server certificate validation.
	TrustCert bool `yaml:"trust_cert"`

	// Query is a query file path or an s3://bucket/key reference.
	Query string `yaml:"query"`

	// Output is a local .xlsx path or an s3://bucket/key reference.
	Output string `yaml:"output"`
	Sheet  string `yaml:"sheet"`

	// Workers > 1 decodes rows in parallel.
	Workers int `yaml:"workers"`

	Log     LogSettings     `yaml:"log"`
	Storage StorageSettings `yaml:"storage"`
	Server  ServerSettings  `yaml:"server"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// StorageSettings configures object storage. Leave Endpoint empty when no
// s3:// references are used.
type StorageSettings struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// Default returns settings with every optional field filled in.
func Default() *Settings {
	return &Settings{
		Driver:    string(database.DriverSQLServer),
		Host:      "localhost",
		TrustCert: true,
		Query:     "query.sql",
		Sheet:     "Sheet1",
		Workers:   1,
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// Load reads the settings file at path over the defaults and applies
// SQLSHEET_* environment overrides.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "settings file "+path+" not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindUnknown, "read settings", err)
	}
	return Parse(data)
}

// Parse decodes settings from YAML or JSON bytes.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse settings", err)
	}
	s.applyEnvOverrides()
	return s, nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("SQLSHEET_PASSWORD"); v != "" {
		s.Password = v
	}
	if v := os.Getenv("SQLSHEET_STORAGE_SECRET_KEY"); v != "" {
		s.Storage.SecretKey = v
	}
	if v := os.Getenv("SQLSHEET_LOG_LEVEL"); v != "" {
		s.Log.Level = v
	}
	if v := os.Getenv("SQLSHEET_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Workers = n
		}
	}
}

// Validate reports the first missing or malformed field.
func (s *Settings) Validate() error {
	if _, err := database.ParseDriver(s.Driver); err != nil {
		return err
	}
	var missing []string
	if s.Host == "" {
		missing = append(missing, "host")
	}
	if s.Database == "" {
		missing = append(missing, "database")
	}
	if s.Output == "" {
		missing = append(missing, "output")
	}
	if len(missing) > 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "missing required settings: %s", strings.Join(missing, ", "))
	}
	if s.Port < 0 || s.Port > 65535 {
		return errs.Newf(errs.ErrKindInvalidInput, "port %d out of range", s.Port)
	}
	if s.Workers < 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "workers must not be negative, got %d", s.Workers)
	}
	if s.NeedsStorage() && s.Storage.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "s3:// query or output requires storage.endpoint")
	}
	return nil
}

// NeedsStorage reports whether the query or output lives in object storage.
func (s *Settings) NeedsStorage() bool {
	return filestore.IsURL(s.Query) || filestore.IsURL(s.Output)
}

// DatabaseConfig returns pool and connection settings for the configured driver.
func (s *Settings) DatabaseConfig() (*database.Config, error) {
	driver, err := database.ParseDriver(s.Driver)
	if err != nil {
		return nil, err
	}
	cfg := database.DefaultConfig(driver)
	cfg.Host = s.Host
	cfg.Port = s.Port
	cfg.User = s.Username
	cfg.Password = s.Password
	cfg.Database = s.Database
	cfg.TrustServerCertificate = s.TrustCert
	return cfg, nil
}

// StorageConfig returns the object storage settings, or nil when storage
// is not configured.
func (s *Settings) StorageConfig() *filestore.Config {
	if s.Storage.Endpoint == "" {
		return nil
	}
	cfg := filestore.DefaultConfig(s.Storage.Endpoint, s.Storage.AccessKey, s.Storage.SecretKey)
	cfg.UseSSL = s.Storage.UseSSL
	cfg.Region = s.Storage.Region
	return cfg
}

// LoggerConfig returns the logger settings.
func (s *Settings) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if s.Log.Level != "" {
		cfg.Level = s.Log.Level
	}
	if s.Log.Format != "" {
		cfg.Format = s.Log.Format
	}
	return cfg
}
