package config

import (
	"fmt"
	"net"
)

// Validate checks the complete configuration.
func (c *Config) Validate() error {
	if c.Node.DataDir == "" {
		return fmt.Errorf("node config validation failed: data_dir is required")
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history config validation failed: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api config validation failed: %w", err)
	}
	if c.History.Enabled && c.HistoryDSN() == "" {
		return fmt.Errorf("history config validation failed: postgres requires a dsn")
	}
	return nil
}

// Validate checks the store section.
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "memory", "pebble", "goleveldb":
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	switch s.Compression {
	case "", "none", "lz4":
	default:
		return fmt.Errorf("unknown compression %q", s.Compression)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size cannot be negative")
	}
	return nil
}

// Validate checks the history section. A disabled log is not inspected.
func (h *HistoryConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	switch h.Driver {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("unknown driver %q", h.Driver)
	}
	if h.MaxOpenConns < 0 || h.MaxIdleConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	return nil
}

// Validate checks every enabled serving surface.
func (a *APIConfig) Validate() error {
	if a.JSONRPC.Enabled {
		if err := validateAddress(a.JSONRPC.Address); err != nil {
			return fmt.Errorf("jsonrpc: %w", err)
		}
	}
	if a.Feed.Enabled {
		if err := validateAddress(a.Feed.Address); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
	}
	if a.GRPC.Enabled {
		if err := validateAddress(a.GRPC.Address); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		if a.GRPC.MaxRecvMsgSize <= 0 || a.GRPC.MaxSendMsgSize <= 0 {
			return fmt.Errorf("grpc: message size limits must be positive")
		}
	}
	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address is required")
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	if host == "" {
		return fmt.Errorf("invalid address %q: host cannot be empty", address)
	}
	if port == "" {
		return fmt.Errorf("invalid address %q: port cannot be empty", address)
	}
	return nil
}
