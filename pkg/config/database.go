package config

import (
	"fmt"
	"strings"
	"time"
)

// DatabaseConfig configures the product store.
// Driver "postgres" requires URL; driver "memory" keeps products in process.
type DatabaseConfig struct {
	Driver     string        `koanf:"driver"`
	URL        string        `koanf:"url"`
	Timeout    time.Duration `koanf:"timeout"`
	Migrations string        `koanf:"migrations"`
}

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"
)

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "", DatabaseDriverPostgres:
		c.Driver = DatabaseDriverPostgres
	case DatabaseDriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown database driver: %s", c.Driver)
	}
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides credentials in connection strings before they reach the logs.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		scheme, _, found := strings.Cut(parts[0], "://")
		if found {
			return scheme + "://****@" + parts[1]
		}
		return "****@" + parts[1]
	}
	return "****"
}
