package history

import (
	"fmt"
	"time"
)

// Supported drivers. The sqlite driver is the modernc pure-Go build, so a
// default deployment needs no cgo and no external server.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database the operations log writes to.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is the driver-specific data source: a file path for sqlite, a
	// connection string for postgres.
	DSN string

	// MaxOpenConns caps the connection pool. Zero keeps the driver
	// default; sqlite is forced to one writer.
	MaxOpenConns int

	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this.
	ConnMaxLifetime time.Duration

	// Timeout bounds every statement the store issues.
	Timeout time.Duration
}

// DefaultConfig returns a sqlite configuration writing to the given file.
func DefaultConfig(path string) Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		Timeout:      5 * time.Second,
	}
}

// Validate normalizes driver aliases and checks the configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	default:
		return fmt.Errorf("history: unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("history: missing DSN")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("history: negative connection pool size")
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return nil
}
