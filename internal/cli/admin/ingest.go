package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/askhr/internal/config"
	"github.com/cloo-solutions/askhr/internal/jobs"
	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/cloo-solutions/askhr/internal/source"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest policy documents",
		Long:  "Load policy documents from a directory or S3 bucket, chunk and index them",
		RunE:  runIngest,
	}

	cmd.Flags().StringP("dir", "d", "", "Directory of .txt/.md policy documents")
	cmd.Flags().Bool("s3", false, "Load documents from the configured S3 bucket instead of a directory")
	cmd.Flags().BoolP("watch", "w", false, "Keep watching the directory and re-ingest changed files")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to ingest")
	}

	dir, _ := cmd.Flags().GetString("dir")
	useS3, _ := cmd.Flags().GetBool("s3")
	watch, _ := cmd.Flags().GetBool("watch")

	if useS3 && dir != "" {
		return fmt.Errorf("--dir and --s3 are mutually exclusive")
	}
	if !useS3 && dir == "" {
		return fmt.Errorf("either --dir or --s3 is required")
	}
	if watch && useS3 {
		return fmt.Errorf("--watch only works with --dir")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	deps := buildPipeline(pool, cfg)

	var src source.Source
	var fsSrc *source.FilesystemSource
	if useS3 {
		if !cfg.HasS3() {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for --s3")
		}
		src, err = source.NewS3Source(ctx, source.S3SourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 source: %w", err)
		}
	} else {
		fsSrc = source.NewFilesystemSource(dir, nil)
		src = fsSrc
	}

	inputs, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(inputs) == 0 {
		log.Println("ingest: no documents found")
	}

	for _, input := range inputs {
		if err := ingestOne(ctx, deps, input); err != nil {
			return err
		}
	}
	log.Printf("ingest: queued %d documents, processing...", len(inputs))

	// Drain the queue inline instead of leaving it to the server's worker
	processor := jobs.NewIngestWorker(deps.jobRepo, deps.ingestSvc)
	if err := processor.ProcessJobs(ctx); err != nil {
		return fmt.Errorf("failed to process ingest jobs: %w", err)
	}
	log.Println("ingest: done")

	if !watch {
		return nil
	}
	return watchDir(ctx, deps, fsSrc, dir, processor)
}

func ingestOne(ctx context.Context, deps *pipeline, input service.IngestInput) error {
	doc, err := deps.documentSvc.Ingest(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", input.SourcePath, err)
	}
	log.Printf("ingest: queued document %s (%s)", doc.ID, doc.Title)
	return nil
}

// watchDir re-ingests files as they change until interrupted.
func watchDir(ctx context.Context, deps *pipeline, fsSrc *source.FilesystemSource, dir string, processor *jobs.IngestWorker) error {
	watcher, err := source.NewWatcher(nil)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	changed, err := watcher.Watch(watchCtx, dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("ingest: watching %s for changes", dir)
	for {
		select {
		case <-quit:
			log.Println("ingest: watch stopped")
			return nil
		case path, ok := <-changed:
			if !ok {
				return nil
			}
			input, err := fsSrc.LoadFile(path)
			if err != nil {
				log.Printf("ingest: failed to load %s: %v", path, err)
				continue
			}
			if err := ingestOne(ctx, deps, *input); err != nil {
				log.Printf("ingest: %v", err)
				continue
			}
			if err := processor.ProcessJobs(ctx); err != nil {
				log.Printf("ingest: failed to process jobs: %v", err)
			}
		}
	}
}
