package config

import (
	"fmt"
	"time"
)

// AuthConfig describes the identity provider used to verify bearer tokens.
// With Enabled set to false every request runs as the development identity.
type AuthConfig struct {
	Enabled     bool          `koanf:"enabled"`
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	ClientID    string        `koanf:"clientid"`
	MinInterval time.Duration `koanf:"mininterval"`
	AdminRole   string        `koanf:"adminrole"`
}

const defaultAdminRole = "admin"

func (c *AuthConfig) Validate() error {
	if c.AdminRole == "" {
		c.AdminRole = defaultAdminRole
	}
	if !c.Enabled {
		return nil
	}
	if c.JwksURL == "" {
		return fmt.Errorf("IdP JWKS URL cannot be empty")
	}
	if c.Issuer == "" {
		return fmt.Errorf("IdP issuer cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("IdP client ID cannot be empty")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("IdP minimum interval must be greater than zero")
	}
	return nil
}
