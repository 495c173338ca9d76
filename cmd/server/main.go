package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"alcyxob/ai-reports/internal/api"
	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/repository/gormdb"
	"alcyxob/ai-reports/internal/repository/mongo"
	"alcyxob/ai-reports/internal/service"
	"alcyxob/ai-reports/internal/storage"
	"alcyxob/ai-reports/internal/summarizer"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// @title AI Reports API
// @version 1.0
// @description Upload CSV or Excel files, get AI summaries and PDF reports.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", "error", err)
	}
	log.Info("server exiting")
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeDB, err := openRepositories(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeDB()

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	log.Info("file storage ready", "driver", cfg.Storage.Driver)

	ai := summarizer.NewClient(cfg.AI)
	if !ai.Enabled() {
		log.Warn("AI API key not configured, summaries are disabled")
	}
	renderer, err := pdfreport.NewWithFontFile(cfg.PDF.FontFile)
	if err != nil {
		return fmt.Errorf("init pdf renderer: %w", err)
	}

	authService := service.NewAuthService(repos.Users, repos.Revoked, cfg.JWT.Secret, cfg.JWT.Expiration)
	historyService := service.NewHistoryService(repos.History, repos.Reports, log)
	uploadService := service.NewUploadService(repos.Uploads, historyService,
		preview.New(cfg.Upload.PreviewRows, cfg.Upload.PreviewTextChars), log)
	reportService := service.NewReportService(repos.Reports, repos.Uploads, historyService, files, renderer,
		preview.New(cfg.Upload.ReportRows, cfg.Upload.PreviewTextChars), log)
	pipeline := service.NewPipeline(service.PipelineConfig{
		Uploads:    repos.Uploads,
		Reports:    repos.Reports,
		History:    historyService,
		Summarizer: ai,
		Renderer:   renderer,
		Files:      files,
		Upload:     cfg.Upload,
		Log:        log,
	})

	switch strings.ToLower(cfg.Log.Mode) {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg.Server, cfg.Upload.MaxBytes, api.Services{
		Auth:     authService,
		Uploads:  uploadService,
		Reports:  reportService,
		History:  historyService,
		Pipeline: pipeline,
	}, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return service.RunCredentialSweeper(gctx, authService, cfg.Auth.SweepInterval, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openRepositories connects the configured backend. The returned func
// releases the connection.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (repository.Repositories, func(), error) {
	switch cfg.Driver {
	case "mongo":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		mongo.EnsureIndexes(indexCtx, db, log)
		cancel()

		log.Info("database connection established", "driver", cfg.Driver, "name", cfg.Name)
		return mongo.NewRepositories(db), func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("failed to disconnect mongo", "error", err)
			}
		}, nil
	default:
		db, err := gormdb.Open(cfg, log)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := gormdb.Migrate(db); err != nil {
			_ = gormdb.Close(db)
			return repository.Repositories{}, nil, err
		}
		log.Info("database connection established", "driver", cfg.Driver)
		return gormdb.NewRepositories(db), func() {
			if err := gormdb.Close(db); err != nil {
				log.Error("failed to close database", "error", err)
			}
		}, nil
	}
}
