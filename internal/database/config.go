package database

import (
	"time"

	"github.com/koustreak/sqlsheet/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverSQLServer Driver = "sqlserver"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
)

// ParseDriver validates a driver name from settings. Empty means SQL Server.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case "", DriverSQLServer:
		return DriverSQLServer, nil
	case DriverPostgres, DriverMySQL:
		return Driver(s), nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", s)
	}
}

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// Driver is the database engine (e.g. DriverSQLServer).
	Driver Driver

	// DSN is the full connection string. When empty, drivers build one
	// from the connection fields below.
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string

	// TrustServerCertificate skips TLS certificate validation.
	// Convenient against development servers, unsafe in production.
	TrustServerCertificate bool

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing a new connection
	QueryTimeout   time.Duration // per-query deadline applied by QueryResults
}

// DefaultConfig returns pool settings sized for a one-shot export tool.
func DefaultConfig(driver Driver) *Config {
	return &Config{
		Driver:          driver,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    5 * time.Minute,
	}
}

// Dialect returns the SQL dialect of the configured driver.
func (c *Config) Dialect() Dialect {
	switch c.Driver {
	case DriverPostgres:
		return DialectPostgres
	case DriverMySQL:
		return DialectMySQL
	default:
		return DialectSQLServer
	}
}

// PortOr returns the configured port or def when unset.
func (c *Config) PortOr(def int) int {
	if c.Port == 0 {
		return def
	}
	return c.Port
}
