package cache

import (
	"context"
	"os"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"

type RedisCacheSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	cache     *RedisCache
	ctx       context.Context
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.container, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.4-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	s.Require().NoError(err, "Failed to run Redis container")

	addr, err := s.container.PortEndpoint(s.ctx, "6379/tcp", "")
	s.Require().NoError(err)

	s.client, err = bootstrap.NewRedisClient(s.ctx, config.RedisConfig{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		OpTimeout:   time.Second,
	})
	s.Require().NoError(err)
	s.cache = NewRedisCache(s.client)
}

func (s *RedisCacheSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.ctx).Err())
}

func TestRedisCacheIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) TestGet_Miss() {
	_, err := s.cache.Get(s.ctx)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *RedisCacheSuite) TestSet_NoExpiry() {
	// when
	s.Require().NoError(s.cache.Set(s.ctx, []byte(`[{"name":"A"}]`)))

	// then
	data, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.JSONEq(`[{"name":"A"}]`, string(data))

	ttl, err := s.client.TTL(s.ctx, FeaturedKey).Result()
	s.Require().NoError(err)
	s.Equal(time.Duration(-1), ttl, "snapshot must not expire")
}

func (s *RedisCacheSuite) TestSet_EmptySnapshotIsAHit() {
	s.Require().NoError(s.cache.Set(s.ctx, []byte("[]")))
	data, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("[]", string(data))
}

func (s *RedisCacheSuite) TestGet_ClosedClientIsUnavailable() {
	client := redis.NewClient(&redis.Options{Addr: s.client.Options().Addr})
	s.Require().NoError(client.Close())

	_, err := NewRedisCache(client).Get(s.ctx)
	s.ErrorIs(err, catalogerrors.ErrCacheUnavailable)
}
