package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/disaster-map-service/internal/adapter/http"
	"github.com/couchcryptid/disaster-map-service/internal/adapter/huggingface"
	kafkaadapter "github.com/couchcryptid/disaster-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-map-service/internal/config"
	"github.com/couchcryptid/disaster-map-service/internal/dataset"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/mapview"
	"github.com/couchcryptid/disaster-map-service/internal/notify"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
	"github.com/couchcryptid/disaster-map-service/internal/pipeline"
	"github.com/couchcryptid/disaster-map-service/internal/reports"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded",
		"text_items", len(ds.TextItems),
		"disasters", len(ds.Disasters),
		"relief_centers", len(ds.ReliefCenters),
	)

	if cfg.HuggingFaceAPIKey == "" {
		logger.Warn("HUGGINGFACE_API_KEY not set, inference calls are unauthenticated")
	}
	opts := huggingface.Options{
		BaseURL:    cfg.HuggingFaceBaseURL,
		Token:      cfg.HuggingFaceAPIKey,
		Timeout:    cfg.InferenceTimeout,
		MaxRetries: cfg.InferenceMaxRetries,
	}
	httpClient := huggingface.NewHTTPClient(opts, logger)
	disaster, err := newClassifier(cfg, domain.ModelDisaster, cfg.DisasterModel, opts, httpClient, metrics, logger)
	if err != nil {
		logger.Error("failed to create disaster classifier", "error", err)
		os.Exit(1)
	}
	sentiment, err := newClassifier(cfg, domain.ModelSentiment, cfg.SentimentModel, opts, httpClient, metrics, logger)
	if err != nil {
		logger.Error("failed to create sentiment classifier", "error", err)
		os.Exit(1)
	}

	enricher := pipeline.New(disaster, sentiment, pipeline.Config{
		DisasterLabels: cfg.DisasterLabels,
		MaxConcurrency: cfg.MaxConcurrency,
	}, logger.With("component", "pipeline"), metrics)

	feed := notify.NewFeed(notify.DefaultCapacity, nil, metrics)
	reportService := reports.NewService(feed, cfg.ReportCapacity, nil, logger.With("component", "reports"), metrics)

	viewOpts := mapview.Options{
		Map: mapview.MapSettings{
			Center:      domain.Geo{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng},
			Zoom:        cfg.MapZoom,
			TileURL:     cfg.MapTileURL,
			Attribution: cfg.MapAttribution,
		},
	}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger.With("component", "kafka"))
		viewOpts.Publisher = publisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	view := mapview.New(enricher, feed, ds.TextItems, ds.Disasters, viewOpts, logger.With("component", "mapview"), metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		View:          view,
		Dataset:       ds,
		Reports:       reportService,
		Notifications: feed,
	}, logger.With("component", "http"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Mount the map; enrichment runs in the background.
	view.Mount(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	view.Unmount()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newClassifier(
	cfg *config.Config,
	kind domain.ModelKind,
	model string,
	opts huggingface.Options,
	httpClient *http.Client,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (domain.Classifier, error) {
	client := huggingface.NewClient(kind, model, opts, httpClient, metrics, logger)
	if cfg.InferenceCacheSize <= 0 {
		return client, nil
	}
	cached, err := huggingface.NewCachedClassifier(client, kind, cfg.InferenceCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
