// Package main starts the tradepost listing registry service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tradepost/tradepost-backend/internal/adapter/assetregistry"
	"github.com/tradepost/tradepost-backend/internal/adapter/feed"
	"github.com/tradepost/tradepost-backend/internal/adapter/httpapi"
	"github.com/tradepost/tradepost-backend/internal/adapter/ledger"
	memoryrepo "github.com/tradepost/tradepost-backend/internal/adapter/repository/memory"
	"github.com/tradepost/tradepost-backend/internal/adapter/repository/postgres"
	sqliterepo "github.com/tradepost/tradepost-backend/internal/adapter/repository/sqlite"
	"github.com/tradepost/tradepost-backend/internal/domain"
	"github.com/tradepost/tradepost-backend/internal/usecase/market"
	"github.com/tradepost/tradepost-backend/internal/usecase/seeder"
)

// config holds all environment-driven settings for the server process
type config struct {
	HTTPAddr   string `env:"TRADEPOST_HTTP_ADDR" envDefault:":8080"`
	HealthAddr string `env:"TRADEPOST_HEALTH_ADDR" envDefault:":8081"`
	APIToken   string `env:"TRADEPOST_API_TOKEN" envDefault:"dev-token"`

	// Storage selects the listing store backend: sqlite, postgres, or memory
	Storage    string `env:"TRADEPOST_STORAGE" envDefault:"sqlite"`
	SQLitePath string `env:"TRADEPOST_SQLITE_PATH" envDefault:"data/tradepost.db"`
	DBConnStr  string `env:"TRADEPOST_DB_CONN_STR"`

	// Operator is the identity the listing registry acts under when moving
	// assets; owners must authorize it in the asset registry
	Operator string `env:"TRADEPOST_OPERATOR_ID" envDefault:"00000000-0000-0000-0000-00000000000f"`

	SeedDemo bool `env:"TRADEPOST_SEED_DEMO" envDefault:"false"`
}

func main() {
	log.SetPrefix("[TRADEPOST] ")

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	operator, err := uuid.Parse(cfg.Operator)
	if err != nil {
		return fmt.Errorf("parse operator id: %w", err)
	}

	listingRepo, closeRepo, err := openListingStore(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	assets := assetregistry.NewRegistry()
	funds := ledger.NewLedger()
	hub := feed.NewHub()
	defer hub.Close()

	marketService := market.NewMarketService(listingRepo, assets, funds, hub, operator)

	if cfg.SeedDemo {
		demoSeeder := seeder.NewDemoSeeder(assets, funds, operator)
		if err := demoSeeder.Seed(ctx); err != nil {
			return fmt.Errorf("seed demo fixture: %w", err)
		}
		log.Printf("demo fixture seeded: collection=%s seller=%s buyer=%s",
			seeder.DemoCollection, seeder.DemoSeller, seeder.DemoBuyer)
	}

	apiServer := httpapi.NewServer(marketService)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiServer.Handler(hub, cfg.APIToken),
	}

	healthServer, grpcServer, err := startHealthServer(cfg.HealthAddr)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down gracefully...")
		healthServer.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return <-serveErr
	case err := <-serveErr:
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		if err != nil {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	}
}

// openListingStore builds the configured listing repository and returns a
// cleanup func for process shutdown.
func openListingStore(cfg config) (domain.ListingRepository, func(), error) {
	switch cfg.Storage {
	case "memory":
		return memoryrepo.NewListingRepository(), func() {}, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqliterepo.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite listing store: %w", err)
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				log.Printf("close listing store: %v", err)
			}
		}
		return store, closeStore, nil

	case "postgres":
		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Printf("close database: %v", err)
			}
		}
		return postgres.NewListingRepository(db), closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// startHealthServer serves gRPC health checks for orchestration probes.
func startHealthServer(addr string) (*health.Server, *grpclib.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpclib.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Printf("health endpoint listening on %s", addr)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
			log.Printf("health server stopped: %v", err)
		}
	}()

	return healthServer, grpcServer, nil
}
