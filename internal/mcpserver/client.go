package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the predictor API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// PredictorClient is a pure HTTP client for the predictor API.
type PredictorClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewPredictorClient creates a new client for the predictor API.
func NewPredictorClient(cfg Config) *PredictorClient {
	return &PredictorClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *PredictorClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// ListScenarios returns stored collaboration scenarios, newest first.
func (c *PredictorClient) ListScenarios(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/api/v1/scenarios", q, nil)
}

// CreateScenario creates a new collaboration scenario.
func (c *PredictorClient) CreateScenario(ctx context.Context, body map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/scenarios", nil, body)
}

// RunScenarioPrediction runs the scenario scoring path for one scenario.
func (c *PredictorClient) RunScenarioPrediction(ctx context.Context, scenarioID string) (json.RawMessage, error) {
	path := "/api/v1/predictions/scenario/" + scenarioID
	return c.doRequest(ctx, http.MethodPost, path, nil, nil)
}

// PredictGestures scores the current gesture buffer.
func (c *PredictorClient) PredictGestures(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/predictions/gestures", nil, nil)
}

// GetPrediction returns one stored risk assessment by ID.
func (c *PredictorClient) GetPrediction(ctx context.Context, id string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/predictions/"+id, nil, nil)
}

// GetKPIs returns dashboard headline metrics.
func (c *PredictorClient) GetKPIs(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/dashboard/kpis", nil, nil)
}

// ListAlerts returns safety alerts, newest first.
func (c *PredictorClient) ListAlerts(ctx context.Context, includeAcked bool, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if includeAcked {
		q.Set("include_acknowledged", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/api/v1/alerts", q, nil)
}

// AcknowledgeAlert marks one alert as acknowledged.
func (c *PredictorClient) AcknowledgeAlert(ctx context.Context, id string) (json.RawMessage, error) {
	path := "/api/v1/alerts/" + id + "/acknowledge"
	return c.doRequest(ctx, http.MethodPost, path, nil, nil)
}

// GenerateGestures fills the gesture buffer with synthetic samples.
func (c *PredictorClient) GenerateGestures(ctx context.Context, count int, erratic bool) (json.RawMessage, error) {
	body := map[string]any{"count": count, "erratic": erratic}
	return c.doRequest(ctx, http.MethodPost, "/api/v1/gestures/synthetic", nil, body)
}
