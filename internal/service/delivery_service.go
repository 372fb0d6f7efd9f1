package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/metrics"
)

// DeliveryService performs webhook delivery for triggered alerts, one
// target at a time, with per-target retry and timeout policy.
type DeliveryService struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// NewDeliveryService creates a new delivery service. Request deadlines
// come from each target's TimeoutSeconds, not from the client.
func NewDeliveryService(logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		logger:     logger,
		httpClient: &http.Client{},
	}
}

// Deliver sends the event to one target, retrying failed attempts with
// linear backoff. The target is attempted 1 + RetryCount times; any
// successful attempt returns immediately. Failures are recorded in the
// result, never returned as an error: a failed delivery must not fail
// the triggering pipeline.
func (s *DeliveryService) Deliver(ctx context.Context, target *domain.NotificationTarget, event *domain.AlertEvent) domain.DeliveryResult {
	start := time.Now()
	result := domain.DeliveryResult{TargetID: target.ID}

	payload := s.renderPayload(target, event)
	attempts := 1 + target.RetryCount

	for attempt := 0; attempt < attempts; attempt++ {
		result.Retries = attempt

		statusCode, err := s.attempt(ctx, target, payload)
		if statusCode != 0 {
			result.StatusCode = statusCode
		}

		if err == nil {
			result.Success = true
			result.Error = ""
			break
		}
		result.Error = err.Error()

		s.logger.Warn("webhook delivery attempt failed",
			zap.String("target_id", target.ID),
			zap.String("event_id", event.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == attempts-1 {
			break
		}

		// Linear backoff scaled by attempt number, starting at attempt 0.
		delay := time.Duration(target.RetryDelaySeconds) * time.Second * time.Duration(attempt+1)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				result.Error = ctx.Err().Error()
				result.DurationMs = time.Since(start).Milliseconds()
				metrics.ObserveDelivery(false, result.Retries, time.Since(start))
				return result
			}
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	metrics.ObserveDelivery(result.Success, result.Retries, time.Since(start))

	if result.Success {
		s.logger.Info("webhook delivered",
			zap.String("target_id", target.ID),
			zap.String("event_id", event.ID),
			zap.Int("status", result.StatusCode),
			zap.Int("retries", result.Retries),
		)
	} else {
		s.logger.Error("webhook delivery failed",
			zap.String("target_id", target.ID),
			zap.String("event_id", event.ID),
			zap.Int("retries", result.Retries),
			zap.String("error", result.Error),
		)
	}

	return result
}

// attempt performs a single HTTP request. A non-zero status code is
// returned even for non-2xx responses so the caller can record it.
func (s *DeliveryService) attempt(ctx context.Context, target *domain.NotificationTarget, payload string) (int, error) {
	timeout := time.Duration(target.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := target.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target.URL, strings.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for name, value := range target.Headers {
		req.Header.Set(name, value)
	}
	s.applyAuth(req, target)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

// applyAuth sets the single computed auth header for the target.
func (s *DeliveryService) applyAuth(req *http.Request, target *domain.NotificationTarget) {
	switch target.AuthType {
	case domain.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+target.BearerToken)
	case domain.AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(target.BasicUser + ":" + target.BasicPassword))
		req.Header.Set("Authorization", "Basic "+creds)
	case domain.AuthAPIKey:
		header := target.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, target.APIKeyValue)
	}
}

// renderPayload builds the outbound body: the target's template with
// {{alert.*}} placeholders substituted, or a default JSON envelope when
// no template is configured. Substitution is literal text replacement,
// not a templating engine.
func (s *DeliveryService) renderPayload(target *domain.NotificationTarget, event *domain.AlertEvent) string {
	if target.PayloadTemplate == "" {
		data, err := json.Marshal(map[string]interface{}{
			"alert_id":     event.ID,
			"rule_id":      event.RuleID,
			"rule_name":    event.RuleName,
			"severity":     event.Severity,
			"status":       event.Status,
			"message":      event.Message,
			"metric_value": event.MetricValue,
			"threshold":    event.Threshold,
			"triggered_at": event.TriggeredAt,
		})
		if err != nil {
			s.logger.Error("failed to marshal default payload", zap.Error(err))
			return "{}"
		}
		return string(data)
	}

	replacer := strings.NewReplacer(
		"{{alert.name}}", event.RuleName,
		"{{alert.severity}}", string(event.Severity),
		"{{alert.message}}", event.Message,
		"{{alert.triggeredAt}}", event.TriggeredAt.Format(time.RFC3339),
		"{{alert.ruleId}}", event.RuleID,
		"{{alert.metricValue}}", strconv.FormatFloat(event.MetricValue, 'f', -1, 64),
		"{{alert.threshold}}", strconv.FormatFloat(event.Threshold, 'f', -1, 64),
	)
	return replacer.Replace(target.PayloadTemplate)
}
