// @title pointake API
// @version 1.0
// @description Purchase order PDF line extraction and customer resolution.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pointake/internal/batch"
	"pointake/internal/config"
	"pointake/internal/handler"
	"pointake/internal/logging"
	"pointake/internal/oracle"
	_ "pointake/internal/oracle/claude"
	_ "pointake/internal/oracle/gemini"
	_ "pointake/internal/oracle/openai"
	"pointake/internal/pdf"
	"pointake/internal/port"
	"pointake/internal/preprocess"
	"pointake/internal/repository/postgres"
	"pointake/internal/resolver"
	"pointake/internal/router"
	"pointake/internal/service"
	s3storage "pointake/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	handler.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	resultRepo := postgres.NewResultRepo(db)

	// Initialize storage; without a bucket documents are not archived.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Oracle chains
	extractionGen, err := oracle.NewChain(&cfg.Oracle, oracle.PurposeExtraction, logger)
	if err != nil {
		return fmt.Errorf("failed to build extraction oracle: %w", err)
	}
	matchingGen, err := oracle.NewChain(&cfg.Oracle, oracle.PurposeMatching, logger)
	if err != nil {
		return fmt.Errorf("failed to build matching oracle: %w", err)
	}

	// Pipeline
	reader := pdf.NewReader(pdf.Config{
		PdftoppmPath: cfg.Pipeline.PdftoppmPath,
		TempDir:      cfg.Pipeline.TempDir,
	}, logger)
	pre := preprocess.New(reader, preprocess.Config{
		WordBudget:    cfg.Pipeline.WordBudget,
		MinTextWords:  cfg.Pipeline.MinTextWords,
		LineThreshold: cfg.Pipeline.LineThreshold,
		Render:        port.RenderOptions{Scale: cfg.Pipeline.RenderScale, Quality: cfg.Pipeline.JPEGQuality},
	}, logger)
	res := resolver.New(customerRepo, oracle.NewMatcher(matchingGen, logger), logger)
	orch := batch.New(pre, oracle.NewExtractor(extractionGen, logger), res,
		batch.Config{Concurrency: cfg.Pipeline.Concurrency}, logger)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	userSvc := service.NewUserService(userRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	resultSvc := service.NewResultService(resultRepo)
	batchSvc := service.NewBatchService(orch, storage, service.BatchConfig{
		Bucket:        cfg.S3.Bucket,
		MaxFileSize:   cfg.S3.MaxFileSizeMB << 20,
		MaxFiles:      cfg.Pipeline.MaxFiles,
		PresignExpiry: cfg.S3.PresignExpiry,
	}, logger)

	// Setup router
	r := router.Setup(authSvc, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, userSvc),
		Customer: handler.NewCustomerHandler(customerSvc),
		Batch:    handler.NewBatchHandler(batchSvc, cfg.S3.MaxFileSizeMB << 20),
		Result:   handler.NewResultHandler(resultSvc, authSvc),
		Health:   handler.NewHealthHandler(db),
	}, cfg.CORS.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Port),
			zap.Int("oracle_providers", len(cfg.Oracle.Providers())),
			zap.Bool("storage", storage != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
