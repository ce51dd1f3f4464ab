package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"

// PgStoreSuite runs the PgStore against a real PostgreSQL container.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	s.Require().NoError(err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err, "Failed to get connection string from container")

	// 2. Apply migrations from the package directory
	wd, _ := os.Getwd()
	s.Require().NoError(bootstrap.Migrate(connStr, filepath.Join(wd, "migrations")), "Failed to apply migrations")

	// 3. Connect
	s.dbPool, err = bootstrap.NewDbPool(s.ctx, connStr, 30*time.Second)
	s.Require().NoError(err, "Failed to create pgxpool")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the products table before each test.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products")
	s.Require().NoError(err, "Failed to truncate products table")
}

func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) insert(name, category string) *Product {
	p, err := s.store.Insert(s.ctx, CreateParams{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString("19.90"),
		Category:    category,
		Image:       "https://res.example.com/products/" + name + ".jpg",
		ImageKey:    "products/" + name,
	})
	s.Require().NoError(err)
	return p
}

func (s *PgStoreSuite) TestInsertAndFindByID() {
	// given
	created := s.insert("ball", "toys")

	// when
	found, err := s.store.FindByID(s.ctx, created.ID)

	// then
	s.Require().NoError(err)
	s.Equal("ball", found.Name)
	s.True(decimal.RequireFromString("19.9").Equal(found.Price))
	s.Equal("products/ball", found.ImageKey)
	s.False(found.IsFeatured)
	s.False(found.CreatedAt.IsZero())
}

func (s *PgStoreSuite) TestFindByID_NotFound() {
	_, err := s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, catalogerrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestFindByCategory() {
	s.insert("ball", "toys")
	s.insert("shirt", "clothes")

	toys, err := s.store.FindByCategory(s.ctx, "toys")
	s.Require().NoError(err)
	s.Require().Len(toys, 1)
	s.Equal("ball", toys[0].Name)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PgStoreSuite) TestToggleIsFeaturedAndFindFeatured() {
	// given
	first := s.insert("first", "toys")
	s.insert("second", "toys")
	third := s.insert("third", "toys")

	// when
	_, err := s.store.ToggleIsFeatured(s.ctx, third.ID)
	s.Require().NoError(err)
	updated, err := s.store.ToggleIsFeatured(s.ctx, first.ID)
	s.Require().NoError(err)

	// then
	s.True(updated.IsFeatured)
	featured, err := s.store.FindFeatured(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(featured, 2)
	s.Equal(first.ID, featured[0].ID)
	s.Equal(third.ID, featured[1].ID)

	_, err = s.store.ToggleIsFeatured(s.ctx, uuid.New())
	s.ErrorIs(err, catalogerrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestToggleIsFeatured_ConcurrentFlipsAreNotLost() {
	// given
	p := s.insert("contended", "toys")
	const flips = 20

	// when
	var wg sync.WaitGroup
	for range flips {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ToggleIsFeatured(s.ctx, p.ID)
			s.NoError(err)
		}()
	}
	wg.Wait()

	// then
	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(found.IsFeatured)
}

func (s *PgStoreSuite) TestSampleRandom() {
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		s.insert(name, "toys")
	}

	sample, err := s.store.SampleRandom(s.ctx, 4)
	s.Require().NoError(err)
	s.Len(sample, 4)

	seen := make(map[uuid.UUID]bool)
	for _, r := range sample {
		s.False(seen[r.ID])
		seen[r.ID] = true
		s.NotEmpty(r.Name)
		s.NotEmpty(r.Image)
	}
}

func (s *PgStoreSuite) TestDeleteByID() {
	p := s.insert("ball", "toys")

	s.Require().NoError(s.store.DeleteByID(s.ctx, p.ID))
	_, err := s.store.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, catalogerrors.ErrProductNotFound)
	s.ErrorIs(s.store.DeleteByID(s.ctx, p.ID), catalogerrors.ErrProductNotFound)
}
