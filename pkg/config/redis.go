package config

import (
	"fmt"
	"strings"
	"time"
)

type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dialtimeout"`
	OpTimeout   time.Duration `koanf:"optimeout"`
}

// String returns a string representation of the Redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  dialtimeout: %s\n", c.DialTimeout))
	b.WriteString(fmt.Sprintf("  optimeout: %s\n", c.OpTimeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db index must not be negative: %d", c.DB)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout is not configured")
	}
	return nil
}
