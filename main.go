package main

import (
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/handlers"
	"github.com/schemasense/schemasense-engine/pkg/llm"
	"github.com/schemasense/schemasense-engine/pkg/middleware"
	"github.com/schemasense/schemasense-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Int64("max_file_size_bytes", cfg.Upload.MaxFileSizeBytes),
		zap.Bool("augmenter_enabled", cfg.Augmenter.IsAvailable()))

	descriptions := buildDescriptionService(cfg, logger)

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{
		MaxConcurrent: cfg.Engine.MaxColumnWorkers,
	}, logger)

	analyzer := services.NewAnalyzerService(
		services.AnalyzerConfig{
			AnalysisTimeout:  time.Duration(cfg.Engine.AnalysisTimeoutSeconds) * time.Second,
			SampleValueLimit: cfg.Engine.SampleValueLimit,
		},
		services.NewDialectDetector(logger),
		services.NewTabularReader(logger),
		services.NewTypeClassifier(cfg.Engine.MatchThreshold, cfg.Engine.AllNullColumnPolicy),
		services.NewRecommendationGenerator(cfg.Engine.AllNullColumnPolicy),
		descriptions,
		pool,
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewAnalyzeHandler(cfg, analyzer, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(cfg, descriptions, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting schemasense-engine",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildDescriptionService selects the live augmenter when configured, the
// rule-based fallback otherwise. Swapping the implementation never touches
// the core pipeline.
func buildDescriptionService(cfg *config.Config, logger *zap.Logger) services.DescriptionService {
	if !cfg.Augmenter.IsAvailable() {
		logger.Info("Description augmenter disabled, using rule-based fallback")
		return services.NewFallbackDescriptionService()
	}

	client, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.Augmenter.Endpoint,
		Model:    cfg.Augmenter.Model,
		APIKey:   cfg.Augmenter.APIKey,
	}, logger)
	if err != nil {
		logger.Warn("Description augmenter misconfigured, using rule-based fallback", zap.Error(err))
		return services.NewFallbackDescriptionService()
	}

	return services.NewLiveDescriptionService(
		client,
		llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		services.LiveDescriptionConfig{
			BatchSize: cfg.Augmenter.BatchSize,
			Timeout:   time.Duration(cfg.Augmenter.TimeoutSeconds) * time.Second,
		},
		logger,
	)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
