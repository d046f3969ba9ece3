package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feli-codes/Door2Dock/internal/config"
	"github.com/feli-codes/Door2Dock/internal/feed"
	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/internal/scheduler"
	"github.com/feli-codes/Door2Dock/internal/server"
	"github.com/feli-codes/Door2Dock/internal/services"
	"github.com/feli-codes/Door2Dock/pkg/database"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Mutually exclusive modes, fixed priority:
	// discover > stats > once > burst > continuous
	discover := flag.Bool("discover", false, "Show and register stations within the search radius, then exit")
	stats := flag.Bool("stats", false, "Show statistics over the collected data, then exit")
	once := flag.Bool("once", false, "Run a single collection cycle, then exit")
	burst := flag.Bool("burst", false, "Run a fixed burst of collection cycles, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("bike-collector", version, logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting bike availability collector", logging.Fields{
		"version":       version,
		"reference_lat": cfg.Reference.Latitude,
		"reference_lon": cfg.Reference.Longitude,
		"radius_m":      cfg.SearchRadiusM,
		"poll_interval": cfg.PollInterval.String(),
		"feed_url":      cfg.Feed.URL,
	})

	metricsCollector := metrics.NewCollector("bike_collector")

	db, err := database.NewPostgresDB(&database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewBikeRepository(db, logger, metricsCollector)

	// Schema is created idempotently on every startup
	if err := repo.Bootstrap(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to bootstrap schema", logging.Fields{}, err)
	}

	feedClient := feed.NewClient(cfg.Feed, logger, metricsCollector)
	discoveryService := services.NewDiscoveryService(repo, feedClient, cfg, logger, metricsCollector)
	collectorService := services.NewCollectorService(repo, feedClient, discoveryService, logger, metricsCollector)
	statsService := services.NewStatisticsService(repo, logger, metricsCollector)
	sched := scheduler.New(collectorService, cfg.PollInterval, logger)

	switch {
	case *discover:
		runDiscover(ctx, discoveryService, cfg)
	case *stats:
		runStats(ctx, statsService, logger)
	case *once:
		runOnce(ctx, sched, logger)
	case *burst:
		runBurst(ctx, sched, cfg, logger)
	default:
		runContinuous(ctx, sched, statsService, repo, cfg, logger)
	}
}

func runDiscover(ctx context.Context, discovery *services.DiscoveryService, cfg *config.Config) {
	found, err := discovery.Discover(ctx)
	if err != nil {
		fmt.Printf("\nDiscovery failed: %v\n0 stations found.\n", err)
		return
	}

	fmt.Printf("\n%d station(s) within %.0f m of the reference point:\n\n", len(found), cfg.SearchRadiusM)
	for i, s := range found {
		fmt.Printf("  %d. %s (%.0fm) - %d docks, %d bikes, %d e-bikes\n",
			i+1, s.StationName, s.DistanceM,
			s.Status.TotalDocks, s.Status.AvailableBikes, s.Status.EBikes)
	}
	fmt.Println()
}

func runStats(ctx context.Context, stats *services.StatisticsService, logger *logging.StructuredLogger) {
	report, err := stats.Report(ctx)
	if err != nil {
		logger.Fatal(ctx, "[STATS_ERROR] Failed to compute statistics", logging.Fields{}, err)
	}
	fmt.Print(report.Render())
}

func runOnce(ctx context.Context, sched *scheduler.Scheduler, logger *logging.StructuredLogger) {
	result, err := sched.RunOnce(ctx)
	if err != nil {
		logger.Fatal(ctx, "[COLLECT_FATAL] Storage failure during collection", logging.Fields{}, err)
	}
	printCycleResult(result)
}

func runBurst(ctx context.Context, sched *scheduler.Scheduler, cfg *config.Config, logger *logging.StructuredLogger) {
	if err := sched.RunBurst(ctx, cfg.BurstCycles); err != nil {
		logger.Fatal(ctx, "[COLLECT_FATAL] Storage failure during burst", logging.Fields{}, err)
	}
	fmt.Printf("\nBurst complete: %d cycles finished.\n", cfg.BurstCycles)
}

func runContinuous(ctx context.Context, sched *scheduler.Scheduler, stats *services.StatisticsService, repo repository.BikeRepository, cfg *config.Config, logger *logging.StructuredLogger) {
	fmt.Println("Bike availability collector")
	fmt.Printf("   Interval:  %s\n", cfg.PollInterval)
	fmt.Printf("   Mode:      continuous (24/7)\n")
	fmt.Printf("   Database:  %s@%s:%d/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	fmt.Printf("   Stop:      Ctrl+C\n\n")

	ops := server.New(cfg.MetricsAddr, repo, logger)
	ops.Start()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	if err := sched.RunContinuous(runCtx); err != nil {
		logger.Fatal(ctx, "[COLLECT_FATAL] Storage failure during continuous collection", logging.Fields{}, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	ops.Shutdown(shutdownCtx)

	// Final statistics on the way out
	report, err := stats.Report(ctx)
	if err != nil {
		logger.Error(ctx, "[STATS_ERROR] Failed to compute final statistics", logging.Fields{}, err)
		return
	}
	fmt.Println("\nCollector stopped.")
	fmt.Print(report.Render())
}

func printCycleResult(result *services.CycleResult) {
	if result.Outcome.Failed() {
		fmt.Printf("Collection failed: %s\n", result.Outcome)
		return
	}
	fmt.Printf("Collected %d reading(s) at %s (total: %d rows)\n",
		result.ReadingsWritten,
		result.Timestamp.Format(time.RFC3339),
		result.TotalReadings)
}
