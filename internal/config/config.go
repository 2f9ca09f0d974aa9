package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const maxInferenceRetries = 10

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Inference API configuration.
	HuggingFaceAPIKey   string
	HuggingFaceBaseURL  string
	DisasterModel       string
	SentimentModel      string
	DisasterLabels      []string
	InferenceTimeout    time.Duration
	InferenceMaxRetries int
	MaxConcurrency      int
	InferenceCacheSize  int

	// DatasetPath overrides the embedded seed dataset when set.
	DatasetPath string

	// ReportCapacity bounds the in-memory emergency report store.
	ReportCapacity int

	// Map view defaults.
	MapCenterLat   float64
	MapCenterLng   float64
	MapZoom        int
	MapTileURL     string
	MapAttribution string

	// Optional publishing of enrichment results.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadDotEnv loads variables from a .env file in the working directory, if
// one exists. Variables already set in the environment take precedence.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	inferenceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("INFERENCE_TIMEOUT", "10s"))
	if err != nil || inferenceTimeout <= 0 {
		return nil, errors.New("invalid INFERENCE_TIMEOUT")
	}

	maxRetries, err := parseIntRange("INFERENCE_MAX_RETRIES", 0, 0, maxInferenceRetries)
	if err != nil {
		return nil, err
	}
	maxConcurrency, err := parseIntRange("INFERENCE_MAX_CONCURRENCY", 0, 0, 1024)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseIntRange("INFERENCE_CACHE_SIZE", 0, 0, 1_000_000)
	if err != nil {
		return nil, err
	}

	reportCapacity, err := parseIntRange("REPORT_CAPACITY", 1000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 34.0522)
	if err != nil {
		return nil, err
	}
	centerLng, err := parseFloat("MAP_CENTER_LNG", -118.2437)
	if err != nil {
		return nil, err
	}
	zoom, err := parseIntRange("MAP_ZOOM", 10, 0, 22)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HuggingFaceAPIKey:   os.Getenv("HUGGINGFACE_API_KEY"),
		HuggingFaceBaseURL:  strings.TrimRight(sharedcfg.EnvOrDefault("HUGGINGFACE_BASE_URL", "https://api-inference.huggingface.co"), "/"),
		DisasterModel:       sharedcfg.EnvOrDefault("DISASTER_MODEL", "cardiffnlp/twitter-roberta-base-sentiment"),
		SentimentModel:      sharedcfg.EnvOrDefault("SENTIMENT_MODEL", "finiteautomata/bertweet-base-sentiment-analysis"),
		DisasterLabels:      parseList(sharedcfg.EnvOrDefault("DISASTER_LABELS", "disaster")),
		InferenceTimeout:    inferenceTimeout,
		InferenceMaxRetries: maxRetries,
		MaxConcurrency:      maxConcurrency,
		InferenceCacheSize:  cacheSize,

		DatasetPath:    os.Getenv("DATASET_PATH"),
		ReportCapacity: reportCapacity,

		MapCenterLat:   centerLat,
		MapCenterLng:   centerLng,
		MapZoom:        zoom,
		MapTileURL:     sharedcfg.EnvOrDefault("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		MapAttribution: sharedcfg.EnvOrDefault("MAP_ATTRIBUTION", "&copy; OpenStreetMap contributors"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "enriched-text-items"),
	}

	if cfg.DisasterModel == "" {
		return nil, errors.New("DISASTER_MODEL is required")
	}
	if cfg.SentimentModel == "" {
		return nil, errors.New("SENTIMENT_MODEL is required")
	}
	if len(cfg.DisasterLabels) == 0 {
		return nil, errors.New("DISASTER_LABELS must name at least one label")
	}
	if cfg.MapCenterLat < -90 || cfg.MapCenterLat > 90 {
		return nil, errors.New("MAP_CENTER_LAT out of range")
	}
	if cfg.MapCenterLng < -180 || cfg.MapCenterLng > 180 {
		return nil, errors.New("MAP_CENTER_LNG out of range")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseIntRange(key string, def, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, minVal, maxVal)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
