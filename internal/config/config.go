// Package config loads and validates the node configuration from defaults,
// a TOML file, and SWAPD_ environment variables, in that priority order.
package config

import (
	"path/filepath"
)

// Config represents the complete swapd configuration.
type Config struct {
	// NetworkName labels the deployment in logs and server_info.
	NetworkName string `toml:"network_name" mapstructure:"network_name"`

	// Node holds node-level settings.
	Node NodeConfig `toml:"node" mapstructure:"node"`

	// Store configures the record store backend.
	Store StoreConfig `toml:"store" mapstructure:"store"`

	// History configures the applied-operations log.
	History HistoryConfig `toml:"history" mapstructure:"history"`

	// API configures the serving surfaces.
	API APIConfig `toml:"api" mapstructure:"api"`

	// configPath remembers where the file config came from.
	configPath string `toml:"-" mapstructure:"-"`
}

// NodeConfig holds node-level settings.
type NodeConfig struct {
	// DataDir is the base directory for node state. Relative store and
	// history paths resolve against it.
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	// Backend names the storage backend: "memory", "pebble" or
	// "goleveldb".
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the store directory. Empty means <data_dir>/records.
	Path string `toml:"path" mapstructure:"path"`

	// CacheSize is the number of values the front cache keeps. Zero
	// disables the cache.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`

	// Compression names the value codec: "none" or "lz4".
	Compression string `toml:"compression" mapstructure:"compression"`
}

// HistoryConfig configures the applied-operations log.
type HistoryConfig struct {
	// Enabled turns the log on. Disabled nodes skip history recording
	// and refuse history queries.
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Driver is the SQL driver: "sqlite" or "postgres".
	Driver string `toml:"driver" mapstructure:"driver"`

	// DSN is the database source. For sqlite, empty means
	// <data_dir>/history.db.
	DSN string `toml:"dsn" mapstructure:"dsn"`

	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `toml:"max_open_conns" mapstructure:"max_open_conns"`

	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// APIConfig configures the serving surfaces.
type APIConfig struct {
	JSONRPC JSONRPCConfig `toml:"jsonrpc" mapstructure:"jsonrpc"`
	Feed    FeedConfig    `toml:"feed" mapstructure:"feed"`
	GRPC    GRPCConfig    `toml:"grpc" mapstructure:"grpc"`
}

// JSONRPCConfig configures the HTTP JSON-RPC listener.
type JSONRPCConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address"`
}

// FeedConfig configures the websocket event feed listener.
type FeedConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address"`
}

// GRPCConfig configures the gRPC admin listener.
type GRPCConfig struct {
	Enabled        bool   `toml:"enabled" mapstructure:"enabled"`
	Address        string `toml:"address" mapstructure:"address"`
	MaxRecvMsgSize int    `toml:"max_recv_msg_size" mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize int    `toml:"max_send_msg_size" mapstructure:"max_send_msg_size"`
}

// ConfigPath returns the path of the loaded configuration file, empty when
// the configuration came from defaults and environment only.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// StorePath resolves the record store directory.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Node.DataDir, "records")
}

// HistoryDSN resolves the operations log source. For sqlite an empty DSN
// falls back to a file under the data directory.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	if c.History.Driver == "postgres" || c.History.Driver == "postgresql" {
		return ""
	}
	return filepath.Join(c.Node.DataDir, "history.db")
}
