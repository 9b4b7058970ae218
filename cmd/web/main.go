// cmd/web/main.go
//
// Pagesmith – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Load configuration (.env → conf/global.yaml → PAGESMITH_* env,
//     vault: references resolved).
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Open the record store selected by store.backend.
//
//  5. Build the upstream client, generator and deployer gateways, the
//     resolution cache, and the lifecycle coordinator.  Every successful
//     write invalidates the cached record for that subdomain.
//
//  6. Build the router:
//
//     • request id, real ip, panic recovery
//     • request enrichment + access log
//     • security headers, HTTPS enforcement
//     • tenant host rewrite  – acme.<root> “/” → /s/acme
//     • /api/*, /s/{subdomain}, /s/{subdomain}/design, /static/*,
//       /api/proxy/{subdomain}
//     • /metrics, /healthz
//
//  7. Serve until SIGINT/SIGTERM, then drain within shutdown_timeout.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/pagesmith/internal/api"
	"github.com/yanizio/pagesmith/internal/config"
	"github.com/yanizio/pagesmith/internal/database"
	"github.com/yanizio/pagesmith/internal/deployer"
	"github.com/yanizio/pagesmith/internal/design"
	"github.com/yanizio/pagesmith/internal/generator"
	"github.com/yanizio/pagesmith/internal/logger"
	"github.com/yanizio/pagesmith/internal/middleware"
	"github.com/yanizio/pagesmith/internal/page"
	"github.com/yanizio/pagesmith/internal/requestinfo"
	"github.com/yanizio/pagesmith/internal/resolve"
	"github.com/yanizio/pagesmith/internal/server"
	"github.com/yanizio/pagesmith/internal/store"
	"github.com/yanizio/pagesmith/internal/upstream"
)

func main() {
	boot := logger.Bootstrap()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatalw("load config", "err", err)
	}

	log, err := logger.New(cfg.Paths.Root, logger.Options{
		Level:      cfg.Log.Level,
		Tee:        logger.IsTTY(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		boot.Fatalw("start logger", "err", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("pagesmith stopped", "err", err)
	}
	log.Info("pagesmith stopped")
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Record store ────────────────────────────────────────────────
	//
	s, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore()

	//
	// ── 2.  Gateways, cache, coordinator ────────────────────────────────
	//
	api0 := upstream.New(upstream.Options{
		BaseURL:  cfg.Upstream.BaseURL,
		APIKey:   cfg.Upstream.APIKey,
		Timeout:  cfg.Upstream.Timeout,
		RetryMax: cfg.Upstream.RetryMax,
		Logger:   log.Named("upstream"),
	})
	gen := generator.NewV0(api0, log.Named("generator"))
	dep := deployer.NewV0(api0, deployer.VersionPolicy(cfg.Deployer.VersionPolicy), log.Named("deployer"))

	resolver := resolve.NewResolver(s, resolve.Options{
		TTL:  cfg.Resolve.CacheTTL,
		Size: cfg.Resolve.CacheSize,
	})
	coord := design.New(s, gen, dep, design.Options{
		Serialize: cfg.Design.SerializePerSubdomain,
		Logger:    log.Named("design"),
		OnChange:  resolver.Invalidate,
	})

	geo, err := requestinfo.OpenGeo(cfg.GeoIP.Path)
	if err != nil {
		return fmt.Errorf("open geoip db: %w", err)
	}
	defer func() { _ = geo.Close() }()

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		requestinfo.Enrich(geo),
		requestinfo.AccessLog(log.Named("http")),
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.HostRewrite(cfg.HTTP.RootDomain),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	api.NewHandler(coord, resolver, s, log.Named("api")).Routes(r)
	page.NewHandler(resolver, cfg.HTTP.RootDomain, cfg.HTTP.ForceHTTPS, log.Named("page")).Routes(r)

	//
	// ── 4.  Serve + graceful shutdown ───────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("listening", "addr", cfg.HTTP.ListenAddr, "root_domain", cfg.HTTP.RootDomain,
			"store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Infow("shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the configured backend and a func that releases it.
func openStore(ctx context.Context, cfg config.Store, log *zap.SugaredLogger) (store.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		rs, err := store.NewRedis(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil

	case "sql":
		db, err := database.OpenWithOptions(ctx, cfg.SQL.Driver, cfg.SQL.DSN, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", cfg.SQL.Driver, err)
		}
		ss, err := store.NewSQL(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if cfg.SQL.Migrate {
			if err := ss.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("sql schema ensured")
		}
		log.Infow("sql store online", "driver", cfg.SQL.Driver)
		return ss, func() { _ = db.Close() }, nil

	default:
		log.Warn("using in-memory store; records are lost on restart")
		return store.NewMemory(), func() {}, nil
	}
}
