package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/audit"
	"github.com/querygate-io/querygate-engine/pkg/config"
	"github.com/querygate-io/querygate-engine/pkg/database"
	"github.com/querygate-io/querygate-engine/pkg/handlers"
	"github.com/querygate-io/querygate-engine/pkg/llm"
	"github.com/querygate-io/querygate-engine/pkg/middleware"
	"github.com/querygate-io/querygate-engine/pkg/retry"
	"github.com/querygate-io/querygate-engine/pkg/schema"
	"github.com/querygate-io/querygate-engine/pkg/services"
	enginesql "github.com/querygate-io/querygate-engine/pkg/sql"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Engine store: migrations run over database/sql, queries over pgx.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("open engine store", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, "migrations", logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	enginePool, err := database.NewPool(ctx, &database.PoolConfig{
		DSN:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		logger.Fatal("connect engine store", zap.Error(err))
	}
	defer enginePool.Close()

	datasourcePool, err := database.NewPool(ctx, &database.PoolConfig{
		DSN:            cfg.Datasource.ConnectionString(),
		MaxConnections: cfg.Datasource.MaxConnections,
	}, logger)
	if err != nil {
		logger.Fatal("connect datasource", zap.Error(err))
	}
	defer datasourcePool.Close()

	discoverer := schema.NewDiscoverer(datasourcePool, logger)
	var snapshot *schema.Snapshot
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		var snapErr error
		snapshot, snapErr = discoverer.Snapshot(ctx)
		return snapErr
	})
	if err != nil {
		logger.Fatal("build initial schema snapshot", zap.Error(err))
	}
	registry := schema.NewRegistry(snapshot)

	refreshPeriod := time.Duration(cfg.Schema.RefreshPeriodSeconds) * time.Second
	go schema.NewRefresher(registry, discoverer, refreshPeriod, logger).Run(ctx)

	generator, err := llm.NewGenerator(llm.Config{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
	})
	if err != nil {
		logger.Fatal("create SQL generator", zap.Error(err))
	}

	executor := database.NewReadOnlyExecutor(
		datasourcePool,
		time.Duration(cfg.Guardrails.StatementTimeoutMs)*time.Millisecond,
		logger,
	)
	recorder := audit.NewRecorder(enginePool, logger)
	pipeline := enginesql.NewPipeline(cfg.Guardrails.MaxPageSize, logger)
	queryService := services.NewQueryService(registry, generator, pipeline, executor, recorder, cfg.Guardrails.HardRowCap, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg.Version).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("querygate-engine listening",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
