package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/api/middleware"
	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/repository/file"
	"github.com/streamguard/streamguard/internal/service"
	"github.com/streamguard/streamguard/pkg/validator"
)

type nullSource struct{}

func (nullSource) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	return &domain.Snapshot{}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.AlertEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Init()

	logger := zap.NewNop()
	engine := service.NewAlertEngine(
		service.EngineOptions{},
		file.NewStore(filepath.Join(t.TempDir(), "state.json")),
		nullSource{},
		service.NewDeliveryService(logger),
		service.NewListenerBus(logger),
		logger,
	)

	alert := NewAlertHandler(engine, logger)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/v1/alerts/rules", alert.CreateRule)
	r.GET("/v1/alerts/rules", alert.ListRules)
	r.DELETE("/v1/alerts/rules/:ruleId", alert.DeleteRule)
	r.POST("/v1/alerts/targets", alert.CreateTarget)
	r.GET("/v1/alerts/targets", alert.ListTargets)
	r.DELETE("/v1/alerts/targets/:targetId", alert.DeleteTarget)
	r.GET("/v1/alerts/history", alert.ListHistory)
	r.POST("/v1/alerts/history/:alertId/acknowledge", alert.AcknowledgeAlert)
	r.POST("/v1/alerts/history/:alertId/resolve", alert.ResolveAlert)
	r.POST("/v1/alerts/history/:alertId/silence", alert.SilenceAlert)
	r.POST("/v1/alerts/evaluate", alert.Evaluate)
	r.GET("/v1/alerts/engine/status", alert.EngineStatus)
	return r, engine
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRuleAppliesDefaults(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/rules", `{
		"name": "high latency",
		"enabled": true,
		"conditions": [{"metric": "latency", "operator": ">", "threshold": 500}]
	}`)

	assert.Equal(t, http.StatusCreated, w.Code)

	var rule domain.AlertRule
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &rule))
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, domain.SeverityWarning, rule.Severity, "severity defaults to warning")
	assert.Equal(t, 5, rule.CooldownMinutes, "cooldown defaults to 5 minutes")
	assert.False(t, rule.CreatedAt.IsZero())
}

func TestCreateRuleValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"conditions": [{"metric": "latency", "operator": ">", "threshold": 1}]}`},
		{"no conditions", `{"name": "x", "conditions": []}`},
		{"bad metric", `{"name": "x", "conditions": [{"metric": "disk", "operator": ">", "threshold": 1}]}`},
		{"bad operator", `{"name": "x", "conditions": [{"metric": "latency", "operator": "~", "threshold": 1}]}`},
		{"bad severity", `{"name": "x", "severity": "urgent", "conditions": [{"metric": "latency", "operator": ">", "threshold": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/v1/alerts/rules", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateRuleValidationDetails(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/rules", `{
		"name": "x",
		"conditions": [{"metric": "disk", "operator": ">", "threshold": 1}]
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string                   `json:"error"`
		Details []domain.ValidationError `json:"details"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
	assert.Len(t, resp.Details, 1)
	assert.Equal(t, "metric", resp.Details[0].Field)
	assert.Contains(t, resp.Details[0].Message, "valid metric")
}

func TestCreateRuleMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/rules", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp.Error)
}

func TestCreateTargetAppliesDefaults(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/targets", `{
		"name": "ops webhook",
		"url": "https://hooks.example.com/abc",
		"enabled": true
	}`)

	assert.Equal(t, http.StatusCreated, w.Code)

	var target domain.NotificationTarget
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &target))
	assert.Equal(t, http.MethodPost, target.Method)
	assert.Equal(t, domain.AuthNone, target.AuthType)
	assert.Equal(t, 5, target.RetryDelaySeconds)
	assert.Equal(t, 10, target.TimeoutSeconds)
}

func TestCreateTargetValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/targets", `{"name": "x", "url": "not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/alerts/targets", `{
		"name": "x", "url": "https://example.com", "auth_type": "kerberos"
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateWithInlineSnapshot(t *testing.T) {
	r, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/v1/alerts/rules", `{
		"name": "high latency",
		"enabled": true,
		"conditions": [{"metric": "latency", "operator": ">", "threshold": 500}]
	}`)

	w := doRequest(r, http.MethodPost, "/v1/alerts/evaluate", `{"latency": 612}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []domain.EvaluationResult `json:"data"`
		Total int                       `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.True(t, resp.Data[0].Triggered)
}

func TestHistoryAndLifecycleEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	doRequest(r, http.MethodPost, "/v1/alerts/rules", `{
		"name": "high latency",
		"enabled": true,
		"cooldown_minutes": 60,
		"conditions": [{"metric": "latency", "operator": ">", "threshold": 500}]
	}`)
	doRequest(r, http.MethodPost, "/v1/alerts/evaluate", `{"latency": 612}`)

	w := doRequest(r, http.MethodGet, "/v1/alerts/history", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []domain.AlertEvent `json:"data"`
		Total int                 `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	eventID := resp.Data[0].ID

	// Acknowledge requires a body naming the actor.
	w = doRequest(r, http.MethodPost, fmt.Sprintf("/v1/alerts/history/%s/acknowledge", eventID), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, fmt.Sprintf("/v1/alerts/history/%s/acknowledge", eventID),
		`{"acknowledged_by": "operator@example.com"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(r, http.MethodPost, fmt.Sprintf("/v1/alerts/history/%s/resolve", eventID), "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	// Lifecycle ops on unknown events are tolerated.
	w = doRequest(r, http.MethodPost, "/v1/alerts/history/evt_missing/silence", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/alerts/history?status=resolved", "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, domain.StatusResolved, resp.Data[0].Status)
}

func TestHistoryQueryValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/v1/alerts/history?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/alerts/history?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngineStatusEndpoint(t *testing.T) {
	r, engine := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/v1/alerts/engine/status", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var status service.EngineStatus
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.Equal(t, engine.Status().EvaluationInterval, status.EvaluationInterval)
}

func TestDeleteRule(t *testing.T) {
	r, engine := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/v1/alerts/rules", `{
		"name": "x",
		"conditions": [{"metric": "latency", "operator": ">", "threshold": 1}]
	}`)
	var rule domain.AlertRule
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &rule))

	w = doRequest(r, http.MethodDelete, "/v1/alerts/rules/"+rule.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, engine.ListRules())
}

func TestDeleteUnknownResourceReturnsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodDelete, "/v1/alerts/rules/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)

	w = doRequest(r, http.MethodDelete, "/v1/alerts/targets/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
