package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

// DefaultBaseURL is the hosted Inference API endpoint.
const DefaultBaseURL = "https://api-inference.huggingface.co"

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// Options configures the HTTP transport shared by all model clients.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

// Client implements domain.Classifier for one hosted text-classification model.
type Client struct {
	kind       domain.ModelKind
	model      string
	token      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHTTPClient builds the retrying transport used by model clients. A
// MaxRetries of zero issues each request exactly once.
func NewHTTPClient(opts Options, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = logger
	// Hand the last response back unchanged so the caller sees the real status.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}

// NewClient creates a classifier for model, labeled kind in logs and metrics.
func NewClient(kind domain.ModelKind, model string, opts Options, httpClient *http.Client, metrics *observability.Metrics, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		kind:       kind,
		model:      model,
		token:      opts.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    metrics,
		logger:     logger.With("model", model, "kind", string(kind)),
	}
}

// Classify posts text to the model and returns its label/score pairs.
func (c *Client) Classify(ctx context.Context, text string) ([]domain.Classification, error) {
	start := time.Now()
	result, err := c.doRequest(ctx, text)
	c.metrics.ClassifyDuration.WithLabelValues(string(c.kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ClassifyRequests.WithLabelValues(string(c.kind), "error").Inc()
		c.logger.Debug("classify failed", "error", err)
		return nil, err
	}
	c.metrics.ClassifyRequests.WithLabelValues(string(c.kind), "success").Inc()
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, text string) ([]domain.Classification, error) {
	payload, err := json.Marshal(request{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s classify request: %w", c.kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("huggingface API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	cs, err := parseClassifications(body)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, domain.ErrEmptyClassification
	}
	return cs, nil
}

// parseClassifications accepts both the nested [[{label,score}]] shape the
// API returns for a single input and the flat [{label,score}] shape.
func parseClassifications(body []byte) ([]domain.Classification, error) {
	var nested [][]domain.Classification
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []domain.Classification
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return flat, nil
}

// Inference API request types.

type request struct {
	Inputs string `json:"inputs"`
}
