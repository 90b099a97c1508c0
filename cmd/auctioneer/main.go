package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vpleague/auctioneer/internal/api"
	"github.com/vpleague/auctioneer/internal/auction"
	"github.com/vpleague/auctioneer/internal/clock"
	"github.com/vpleague/auctioneer/internal/config"
	"github.com/vpleague/auctioneer/internal/health"
	"github.com/vpleague/auctioneer/internal/leader"
	"github.com/vpleague/auctioneer/internal/roster"
	"github.com/vpleague/auctioneer/internal/store"
	"github.com/vpleague/auctioneer/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/vpleague/auctioneer/internal/store/postgres"
	_ "github.com/vpleague/auctioneer/internal/store/sqlite"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	rules := store.Rules{
		RosterSize:   cfg.Auction.RosterSize,
		ReservePrice: cfg.Auction.ReservePrice,
	}

	// Open store using the configured driver (postgres or sqlite).
	repos, err := store.Open(ctx, cfg.Database, rules, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	seed := cfg.Auction.SelectionSeed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}

	engine, err := auction.NewEngine(repos, auction.NewSelector(seed), rules, cfg.Auction.ResetToken,
		logger, tp.TracerProvider, tp.MeterProvider, clk)
	if err != nil {
		return fmt.Errorf("creating auction engine: %w", err)
	}
	rosterMgr := roster.NewManager(repos.Players, repos.Teams, repos.Events, cfg.Auction, logger, tp.TracerProvider)

	// Setup health checks.
	healthHandler := health.NewHandler(clk,
		health.DatabaseChecker(repos.Ping),
		health.AuctionStateChecker(func(ctx context.Context) error {
			_, err := repos.State.Get(ctx)
			return err
		}),
	)

	// The API is mounted on every replica; readiness gates traffic to
	// the leader.
	mux := api.NewServer(engine, rosterMgr, logger).Routes()
	mux.HandleFunc("/healthz", healthHandler.LivenessHandler())
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "http server error", slog.Any("error", listenErr))
		}
	}()

	// serve is the core work that only the leader should run.
	serve := func(ctx context.Context) {
		if bootErr := engine.Bootstrap(ctx); bootErr != nil {
			logger.ErrorContext(ctx, "bootstrapping auction state failed", slog.Any("error", bootErr))
			return
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctioneer is running", slog.String("version", version))

		// Block until leadership is lost or process is shutting down.
		<-ctx.Done()

		healthHandler.SetReady(false)
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, serve, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		serve(ctx)
		logger.Info("shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
