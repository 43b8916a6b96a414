package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/askhr/internal/api/handlers"
	"github.com/cloo-solutions/askhr/internal/config"
	"github.com/cloo-solutions/askhr/internal/jobs"
	"github.com/cloo-solutions/askhr/internal/openai"
	"github.com/cloo-solutions/askhr/internal/repository"
	"github.com/cloo-solutions/askhr/internal/server"
	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/cloo-solutions/askhr/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the askhr API server and the background ingest worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background ingest worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to serve")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps := buildPipeline(pool, cfg)

	var ingestWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		processor := jobs.NewIngestWorker(deps.jobRepo, deps.ingestSvc)
		ingestWorker = jobs.NewWorker(processor, cfg.PollInterval)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	}

	routerCfg := server.RouterConfig{
		AskHandler:      handlers.NewAskHandler(deps.questionSvc),
		DocumentHandler: handlers.NewDocumentHandler(deps.documentSvc),
	}
	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// pipeline bundles the wired services the commands share.
type pipeline struct {
	documentSvc *service.DocumentService
	questionSvc *service.QuestionService
	ingestSvc   *service.IngestService
	jobRepo     *repository.IngestJobRepository
}

// buildPipeline wires repositories, the OpenAI clients and the answering
// pipeline from one config.
func buildPipeline(pool *pgxpool.Pool, cfg *config.Config) *pipeline {
	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	agent := openai.NewAgent(cfg.OpenAIAPIKey, cfg.ChatModel)

	chunker := service.NewChunker(service.ChunkConfig{
		MaxChars: cfg.MaxChunkChars,
		MinChars: cfg.MinChunkChars,
		Overlap:  cfg.ChunkOverlap,
	})
	indexer := service.NewIndexer(chunker, embeddingClient, chunkRepo, service.IndexerConfig{
		BatchSize:      cfg.EmbedBatchSize,
		Workers:        cfg.IndexWorkers,
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})
	retriever := service.NewRetriever(embeddingClient, chunkRepo, service.RetrieverConfig{
		TopK:           cfg.TopK,
		ScoreThreshold: float32(cfg.ScoreThreshold),
		Dimensions:     cfg.EmbeddingDimensions,
		EmbedTimeout:   cfg.EmbedTimeout,
		StoreTimeout:   cfg.StoreTimeout,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})
	orchestrator := service.NewOrchestrator(agent, retriever, service.NewAnswerValidator(), service.OrchestratorConfig{
		MaxRounds:    cfg.MaxRounds,
		AgentTimeout: cfg.AgentTimeout,
	})

	return &pipeline{
		documentSvc: service.NewDocumentService(docRepo, jobRepo),
		questionSvc: service.NewQuestionService(orchestrator, questionLogRepo),
		ingestSvc:   service.NewIngestService(docRepo, indexer),
		jobRepo:     jobRepo,
	}
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql connection
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
