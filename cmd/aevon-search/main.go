package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/aevon-search/internal/aggregation"
	corecfg "github.com/aevon-lab/aevon-search/internal/core/config"
	"github.com/aevon-lab/aevon-search/internal/core/storage/postgres"
	redisexec "github.com/aevon-lab/aevon-search/internal/core/storage/redis"
	"github.com/aevon-lab/aevon-search/internal/migrations"
	"github.com/aevon-lab/aevon-search/internal/projection"
	"github.com/aevon-lab/aevon-search/internal/schema"
	schemaapi "github.com/aevon-lab/aevon-search/internal/schema/api"
	"github.com/aevon-lab/aevon-search/internal/schema/formats/protobuf"
	"github.com/aevon-lab/aevon-search/internal/schema/formats/yaml"
	schemaStorage "github.com/aevon-lab/aevon-search/internal/schema/storage"
	"github.com/aevon-lab/aevon-search/internal/server"
)

func main() {
	configPath := flag.String("config", "aevon-search.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration (and saved pipelines)
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"server", fmtAddr(cfg.Server.Host, cfg.Server.Port),
		"redis", cfg.Redis.Addr,
		"database", cfg.Database.Type,
		"pipelines", len(cfg.PipelineLoading.Rules),
	)

	// 2. Aggregation engine transport (Redis)
	executor, err := redisexec.New(
		redisexec.WithAddr(cfg.Redis.Addr),
		redisexec.WithUserCredential(cfg.Redis.Username),
		redisexec.WithPassCredential(cfg.Redis.Password),
		redisexec.WithDatabase(cfg.Redis.DB),
	)
	if err != nil {
		slog.Error("Failed to initialize redis executor", "error", err)
		os.Exit(1)
	}
	defer executor.Close()

	checks := map[string]server.HealthChecker{"redis": executor}

	// 3. Snapshot storage (PostgreSQL + migrations, or in-process)
	var snapshots aggregation.SnapshotStore
	if cfg.Database.Type == "memory" {
		slog.Warn("Snapshots are kept in memory and lost on restart")
		snapshots = aggregation.NewMemorySnapshotStore()
	} else {
		dbAdapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()

		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		if err := dbAdapter.ValidateSchema(context.Background()); err != nil {
			slog.Error("Database schema validation failed", "error", err)
			os.Exit(1)
		}

		snapshots = dbAdapter.Snapshots()
		checks["database"] = dbAdapter
	}

	// 4. Index model catalog
	var schemaRepo schema.Repository
	switch cfg.Schema.SourceType {
	case "filesystem":
		schemaRepo = schemaStorage.NewFileSystemRepository(cfg.Schema.Path)
	default:
		slog.Error("Unsupported schema source type", "type", cfg.Schema.SourceType)
		os.Exit(1)
	}

	resolver := schema.InitializeResolver()
	resolver.RegisterFormat(schema.FormatProtobuf, protobuf.NewCompiler())
	resolver.RegisterFormat(schema.FormatYaml, yaml.NewCompiler())
	catalog := schema.NewCatalog(schema.NewRegistry(schemaRepo), resolver)

	// 5. Pipeline runner + scheduler
	runner := aggregation.NewRunner(catalog, executor, aggregation.RunnerOptions{
		MaxRows: cfg.Aggregation.MaxRows,
		Timeout: cfg.Aggregation.Timeout(),
		Dialect: cfg.Aggregation.Dialect,
	})

	scheduler := aggregation.NewScheduler(
		cfg.Aggregation.Interval(),
		runner,
		snapshots,
		aggregation.NewInMemoryRuleRepository(cfg.PipelineLoading.Rules...),
		cfg.Aggregation.WorkerCount,
	)

	// 6. Query API
	sessions, err := projection.NewSessionCache(int64(cfg.Sessions.Capacity), cfg.Sessions.TTLDuration())
	if err != nil {
		slog.Error("Failed to initialize page sessions", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	projectionSvc := projection.NewService(runner, scheduler, sessions)
	schemaSvc := schemaapi.NewService(catalog)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), server.Options{
		Mode:          cfg.Server.Mode,
		MaxBodySizeMB: cfg.Server.MaxBodySizeMB,
		Checks:        checks,
	})
	projectionSvc.RegisterRoutes(srv.Engine)
	schemaSvc.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Aggregation.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Pipeline scheduler disabled by config")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
