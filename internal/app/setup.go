// Package app wires the catalog components together according to the configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/assetstore"
	"github.com/abgdnv/catalog/internal/cache"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	grpcImpl "github.com/abgdnv/catalog/internal/transport/grpc"
	"github.com/abgdnv/catalog/internal/transport/rest"
	"github.com/abgdnv/catalog/pkg/auth"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging"
	natsclient "github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/abgdnv/catalog/pkg/web"
	"google.golang.org/grpc"
)

// DevIdentity is the caller of every request when authentication is disabled.
const DevIdentity = "local-dev"

type Dependencies struct {
	CatalogService service.CatalogService
	Logger         *slog.Logger

	// Verifier is nil when authentication is disabled.
	Verifier auth.Verifier
	// Assets serves locally stored images, nil for remote asset stores.
	Assets rest.AssetOpener
	// Metrics serves /metrics when set.
	Metrics http.Handler

	closers []func() error
}

// Close releases the connections opened by SetupDependencies, in reverse order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// SetupDependencies connects to the configured backends and builds the catalog service.
// On failure the already opened connections are closed.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Dependencies, err error) {
	deps := &Dependencies{Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	productStore, err := deps.setupStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	featuredCache, err := deps.setupCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	assets, err := deps.setupAssets(cfg.Assets)
	if err != nil {
		return nil, err
	}
	publisher, err := deps.setupPublisher(ctx, cfg.NATS)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Enabled {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		deps.Verifier = verifier
	}

	deps.CatalogService = service.NewService(productStore, featuredCache, assets, logger,
		service.WithAssetFolder(cfg.Assets.Folder),
		service.WithPublisher(publisher),
	)
	return deps, nil
}

func (d *Dependencies) setupStore(ctx context.Context, cfg pkgconfig.DatabaseConfig) (store.ProductStore, error) {
	if cfg.Driver == pkgconfig.DatabaseDriverMemory {
		d.Logger.Warn("Using in-memory product store, products are lost on restart")
		return store.NewMemoryStore(), nil
	}
	if cfg.Migrations != "" {
		if err := bootstrap.Migrate(cfg.URL, cfg.Migrations); err != nil {
			return nil, err
		}
		d.Logger.Info("Database migrations applied", "dir", cfg.Migrations)
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	d.closers = append(d.closers, func() error { dbPool.Close(); return nil })
	d.Logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), nil
}

func (d *Dependencies) setupCache(ctx context.Context, cfg config.CacheConfig) (cache.FeaturedCache, error) {
	var featuredCache cache.FeaturedCache
	switch cfg.Driver {
	case config.CacheDriverMemory:
		featuredCache = cache.NewMemoryCache()
	default:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)
		d.Logger.Info("Successfully connected to redis", "addr", cfg.Redis.Addr)
		featuredCache = cache.NewRedisCache(client)
	}
	if cfg.Breaker.Enabled {
		featuredCache = cache.NewBreakerCache(featuredCache, cfg.Breaker, d.Logger)
	}
	return featuredCache, nil
}

func (d *Dependencies) setupAssets(cfg config.AssetsConfig) (assetstore.AssetStore, error) {
	switch cfg.Driver {
	case config.AssetsDriverBolt:
		boltStore, err := assetstore.OpenBoltStore(cfg.BoltPath, cfg.Folder, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, boltStore.Close)
		d.Assets = boltStore
		return boltStore, nil
	default:
		cloudStore, err := assetstore.NewCloudinaryStore(cfg.CloudinaryURL, cfg.Folder)
		if err != nil {
			return nil, err
		}
		return cloudStore, nil
	}
}

func (d *Dependencies) setupPublisher(ctx context.Context, cfg pkgconfig.NATSConfig) (messaging.Publisher, error) {
	if !cfg.Enabled {
		return messaging.NoopPublisher{}, nil
	}
	nc, err := natsclient.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() error { return nc.Drain() })
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}
	if err := natsclient.EnsureStream(ctx, js, cfg.Stream, messaging.ProductSubjects); err != nil {
		return nil, err
	}
	d.Logger.Info("Publishing product events", "stream", cfg.Stream)
	return natsclient.NewNatsPublisher(js), nil
}

// gate builds the auth middlewares. Without a verifier every caller is the admin development identity.
func gate(deps *Dependencies, adminRole string) rest.Gate {
	authenticate := web.StaticIdentity(auth.Identity{Subject: DevIdentity, Roles: []string{adminRole}})
	if deps.Verifier != nil {
		authenticate = web.Authenticate(deps.Verifier, deps.Logger)
	}
	return rest.Gate{
		Authenticate: authenticate,
		RequireAdmin: web.RequireRole(adminRole, deps.Logger),
	}
}

// SetupHttpHandler builds the router with all catalog routes.
// Used by tests to exercise the HTTP surface without a listener.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	mux.Use(web.MaxBodyBytes(cfg.HTTPServer.MaxBodyBytes))

	rest.NewHandler(deps.CatalogService, deps.Logger).RegisterRoutes(mux, gate(deps, cfg.Auth.AdminRole))
	if deps.Assets != nil {
		rest.RegisterAssetRoutes(mux, deps.Assets, deps.Logger)
	}
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
	return mux
}

// SetupHttpServer creates the HTTP server of the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config, serviceName string) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, serviceName, SetupHttpHandler(deps, cfg))
}

// SetupGrpcServer creates the gRPC server exposing the read side of the catalog.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	catalogServer := grpcImpl.NewServer(deps.CatalogService, deps.Logger)
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, grpcImpl.Register(catalogServer))
}
