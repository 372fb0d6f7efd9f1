// Package source provides the metric snapshot feed consumed by the
// alert engine. The stream-processing engine itself is an external
// collaborator reached over its REST API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
)

// SnapshotProvider supplies a timestamped bundle of current metric
// values on demand.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// KuiperClient polls an eKuiper instance for system and rule metrics.
type KuiperClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewKuiperClient creates a snapshot provider against the given
// eKuiper REST base URL.
func NewKuiperClient(baseURL string, timeout time.Duration, logger *zap.Logger) *KuiperClient {
	return &KuiperClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// metricsResponse mirrors the aggregate metrics document served by the
// manager endpoint. Fields are float64 so any numeric value coerces;
// no validation is performed.
type metricsResponse struct {
	RuleID      string  `json:"rule_id"`
	Latency     float64 `json:"latency"`
	Throughput  float64 `json:"throughput"`
	ErrorCount  float64 `json:"error_count"`
	MemoryUsage float64 `json:"memory_usage"`
	CPUUsage    float64 `json:"cpu_usage"`
	RuleStatus  float64 `json:"rule_status"`
}

// FetchSnapshot retrieves one fresh metric snapshot.
func (c *KuiperClient) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	url := c.baseURL + "/metrics/summary"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("metrics endpoint returned non-2xx status: %d", resp.StatusCode)
	}

	var body metricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode metrics response: %w", err)
	}

	return &domain.Snapshot{
		Timestamp:   time.Now(),
		RuleID:      body.RuleID,
		Latency:     body.Latency,
		Throughput:  body.Throughput,
		ErrorCount:  body.ErrorCount,
		MemoryUsage: body.MemoryUsage,
		CPUUsage:    body.CPUUsage,
		RuleStatus:  body.RuleStatus,
	}, nil
}
