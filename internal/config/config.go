// Package config holds the configuration of the catalog service.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Cache      CacheConfig             `koanf:"cache"`
	Assets     AssetsConfig            `koanf:"assets"`
	Auth       config.AuthConfig       `koanf:"auth"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"

	AssetsDriverCloudinary = "cloudinary"
	AssetsDriverBolt       = "bolt"
)

// CacheConfig selects the featured cache backend.
type CacheConfig struct {
	Driver  string                      `koanf:"driver"`
	Redis   config.RedisConfig          `koanf:"redis"`
	Breaker config.CircuitBreakerConfig `koanf:"breaker"`
}

func (c *CacheConfig) Validate() error {
	switch c.Driver {
	case "", CacheDriverRedis:
		c.Driver = CacheDriverRedis
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	case CacheDriverMemory:
	default:
		return fmt.Errorf("unknown cache driver: %s", c.Driver)
	}
	return c.Breaker.Validate()
}

// AssetsConfig selects where product images are stored.
// The bolt driver keeps images in a local file and serves them under PublicBaseURL/assets/.
type AssetsConfig struct {
	Driver        string `koanf:"driver"`
	CloudinaryURL string `koanf:"cloudinaryurl"`
	Folder        string `koanf:"folder"`
	BoltPath      string `koanf:"boltpath"`
	PublicBaseURL string `koanf:"publicbaseurl"`
}

const defaultAssetFolder = "products"

func (c *AssetsConfig) Validate() error {
	if c.Folder == "" {
		c.Folder = defaultAssetFolder
	}
	switch c.Driver {
	case "", AssetsDriverCloudinary:
		c.Driver = AssetsDriverCloudinary
		if !strings.HasPrefix(c.CloudinaryURL, "cloudinary://") {
			return fmt.Errorf("assets.cloudinaryurl must start with 'cloudinary://'")
		}
	case AssetsDriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("assets.boltpath is not configured")
		}
		c.PublicBaseURL = strings.TrimSuffix(c.PublicBaseURL, "/")
	default:
		return fmt.Errorf("unknown assets driver: %s", c.Driver)
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())

	b.WriteString("\n--- gRPC ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.GRPC.Enabled))
	b.WriteString(fmt.Sprintf("  port: %s\n", c.GRPC.Port))
	b.WriteString(fmt.Sprintf("  reflection: %t\n", c.GRPC.ReflectionEnabled))

	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Database.Driver))
	b.WriteString(fmt.Sprintf("  url: %s\n", config.MaskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Database.Timeout))
	b.WriteString(fmt.Sprintf("  migrations: %s\n", c.Database.Migrations))

	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Cache.Driver))
	if c.Cache.Driver == CacheDriverRedis {
		b.WriteString(c.Cache.Redis.String())
	}
	b.WriteString(c.Cache.Breaker.String())

	b.WriteString("\n--- Assets ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Assets.Driver))
	b.WriteString(fmt.Sprintf("  folder: %s\n", c.Assets.Folder))
	if c.Assets.Driver == AssetsDriverBolt {
		b.WriteString(fmt.Sprintf("  boltpath: %s\n", c.Assets.BoltPath))
		b.WriteString(fmt.Sprintf("  publicbaseurl: %s\n", c.Assets.PublicBaseURL))
	} else {
		b.WriteString(fmt.Sprintf("  cloudinaryurl: %s\n", config.MaskURL(c.Assets.CloudinaryURL)))
	}

	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Auth.Enabled))
	b.WriteString(fmt.Sprintf("  issuer: %s\n", c.Auth.Issuer))
	b.WriteString(fmt.Sprintf("  clientid: %s\n", c.Auth.ClientID))
	b.WriteString(fmt.Sprintf("  adminrole: %s\n", c.Auth.AdminRole))

	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks the configuration values and fills in defaults.
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GRPC,
		&c.Database,
		&c.Cache,
		&c.Assets,
		&c.Auth,
		&c.NATS,
		&c.Telemetry,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
