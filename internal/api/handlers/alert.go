package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/service"
)

// AlertHandler exposes the alert engine to the dashboard
type AlertHandler struct {
	engine *service.AlertEngine
	logger *zap.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(engine *service.AlertEngine, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		engine: engine,
		logger: logger,
	}
}

// ConditionRequest is one condition of a rule registration
type ConditionRequest struct {
	Metric    string  `json:"metric" binding:"required,metricname"`
	Operator  string  `json:"operator" binding:"required,operator"`
	Threshold float64 `json:"threshold"`
	Duration  int     `json:"duration" binding:"omitempty,min=0"`
}

// CreateRuleRequest represents the request to register an alert rule
type CreateRuleRequest struct {
	ID              string             `json:"id"`
	Name            string             `json:"name" binding:"required"`
	Enabled         bool               `json:"enabled"`
	Severity        string             `json:"severity" binding:"omitempty,severity"`
	Conditions      []ConditionRequest `json:"conditions" binding:"required,min=1,dive"`
	RuleFilter      string             `json:"rule_filter"`
	TargetIDs       []string           `json:"target_ids"`
	CooldownMinutes int                `json:"cooldown_minutes" binding:"omitempty,min=0"`
}

// CreateTargetRequest represents the request to register a notification target
type CreateTargetRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	URL         string            `json:"url" binding:"required,url"`
	Method      string            `json:"method" binding:"omitempty,oneof=POST PUT PATCH"`
	Headers     map[string]string `json:"headers"`

	AuthType      string `json:"auth_type" binding:"omitempty,authtype"`
	BearerToken   string `json:"bearer_token"`
	BasicUser     string `json:"basic_user"`
	BasicPassword string `json:"basic_password"`
	APIKeyHeader  string `json:"api_key_header"`
	APIKeyValue   string `json:"api_key_value"`

	PayloadTemplate string `json:"payload_template"`

	RetryCount        int  `json:"retry_count" binding:"omitempty,min=0,max=10"`
	RetryDelaySeconds int  `json:"retry_delay_seconds" binding:"omitempty,min=0"`
	TimeoutSeconds    int  `json:"timeout_seconds" binding:"omitempty,min=1"`
	Enabled           bool `json:"enabled"`
}

// AcknowledgeRequest represents the request to acknowledge an alert event
type AcknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by" binding:"required"`
}

// HistoryQuery represents history retrieval filters
type HistoryQuery struct {
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
	Severity string `form:"severity" binding:"omitempty,severity"`
	Status   string `form:"status" binding:"omitempty,eventstatus"`
	Since    string `form:"since"`
}

// CreateRule registers an alert rule
func (h *AlertHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	conditions := make([]domain.Condition, 0, len(req.Conditions))
	for _, cond := range req.Conditions {
		conditions = append(conditions, domain.Condition{
			Metric:    domain.MetricName(cond.Metric),
			Operator:  domain.Operator(cond.Operator),
			Threshold: cond.Threshold,
			Duration:  cond.Duration,
		})
	}

	rule := &domain.AlertRule{
		ID:              req.ID,
		Name:            req.Name,
		Enabled:         req.Enabled,
		Severity:        domain.Severity(req.Severity),
		Conditions:      conditions,
		RuleFilter:      req.RuleFilter,
		TargetIDs:       req.TargetIDs,
		CooldownMinutes: req.CooldownMinutes,
	}

	// Set defaults
	if rule.Severity == "" {
		rule.Severity = domain.SeverityWarning
	}
	if rule.CooldownMinutes == 0 {
		rule.CooldownMinutes = 5
	}

	rule = h.engine.RegisterRule(c.Request.Context(), rule)
	c.JSON(http.StatusCreated, rule)
}

// ListRules lists all registered alert rules
func (h *AlertHandler) ListRules(c *gin.Context) {
	rules := h.engine.ListRules()
	c.JSON(http.StatusOK, ListResponse{Data: rules, Total: len(rules)})
}

// DeleteRule unregisters an alert rule
func (h *AlertHandler) DeleteRule(c *gin.Context) {
	if !h.engine.UnregisterRule(c.Request.Context(), c.Param("ruleId")) {
		c.Error(domain.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateTarget registers a notification target
func (h *AlertHandler) CreateTarget(c *gin.Context) {
	var req CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	target := &domain.NotificationTarget{
		ID:                req.ID,
		Name:              req.Name,
		Description:       req.Description,
		URL:               req.URL,
		Method:            req.Method,
		Headers:           req.Headers,
		AuthType:          domain.AuthType(req.AuthType),
		BearerToken:       req.BearerToken,
		BasicUser:         req.BasicUser,
		BasicPassword:     req.BasicPassword,
		APIKeyHeader:      req.APIKeyHeader,
		APIKeyValue:       req.APIKeyValue,
		PayloadTemplate:   req.PayloadTemplate,
		RetryCount:        req.RetryCount,
		RetryDelaySeconds: req.RetryDelaySeconds,
		TimeoutSeconds:    req.TimeoutSeconds,
		Enabled:           req.Enabled,
	}

	// Set defaults
	if target.Method == "" {
		target.Method = http.MethodPost
	}
	if target.AuthType == "" {
		target.AuthType = domain.AuthNone
	}
	if target.RetryDelaySeconds == 0 {
		target.RetryDelaySeconds = 5
	}
	if target.TimeoutSeconds == 0 {
		target.TimeoutSeconds = 10
	}

	target = h.engine.RegisterTarget(c.Request.Context(), target)
	c.JSON(http.StatusCreated, target)
}

// ListTargets lists all registered notification targets
func (h *AlertHandler) ListTargets(c *gin.Context) {
	targets := h.engine.ListTargets()
	c.JSON(http.StatusOK, ListResponse{Data: targets, Total: len(targets)})
}

// DeleteTarget unregisters a notification target
func (h *AlertHandler) DeleteTarget(c *gin.Context) {
	if !h.engine.UnregisterTarget(c.Request.Context(), c.Param("targetId")) {
		c.Error(domain.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListHistory lists alert events, newest first
func (h *AlertHandler) ListHistory(c *gin.Context) {
	var query HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(bindError(err))
		return
	}

	filter := service.HistoryFilter{
		Limit:    query.Limit,
		Severity: domain.Severity(query.Severity),
		Status:   domain.EventStatus(query.Status),
	}
	if query.Since != "" {
		since, err := time.Parse(time.RFC3339, query.Since)
		if err != nil {
			c.Error(fmt.Errorf("%w: since must be an RFC3339 timestamp", domain.ErrInvalidInput))
			return
		}
		filter.Since = since
	}

	events := h.engine.GetHistory(filter)
	c.JSON(http.StatusOK, ListResponse{Data: events, Total: len(events)})
}

// AcknowledgeAlert acknowledges an alert event. Missing events and
// events past triggered are tolerated: the operation is accepted
// either way.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	h.engine.AcknowledgeAlert(c.Request.Context(), c.Param("alertId"), req.AcknowledgedBy)
	c.Status(http.StatusAccepted)
}

// ResolveAlert resolves an alert event
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	h.engine.ResolveAlert(c.Request.Context(), c.Param("alertId"))
	c.Status(http.StatusAccepted)
}

// SilenceAlert silences an alert event
func (h *AlertHandler) SilenceAlert(c *gin.Context) {
	h.engine.SilenceAlert(c.Request.Context(), c.Param("alertId"))
	c.Status(http.StatusAccepted)
}

// Evaluate runs one evaluation pass on demand. An optional snapshot in
// the request body replaces the fetched one, which lets the dashboard
// test rules against synthetic metrics.
func (h *AlertHandler) Evaluate(c *gin.Context) {
	var snap *domain.Snapshot
	if c.Request.ContentLength > 0 {
		var body domain.Snapshot
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(bindError(err))
			return
		}
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		snap = &body
	}

	results := h.engine.EvaluateAll(c.Request.Context(), snap)
	c.JSON(http.StatusOK, ListResponse{Data: results, Total: len(results)})
}

// StartEngine transitions the scheduler to Running
func (h *AlertHandler) StartEngine(c *gin.Context) {
	h.engine.Start()
	c.JSON(http.StatusOK, h.engine.Status())
}

// StopEngine transitions the scheduler to Stopped
func (h *AlertHandler) StopEngine(c *gin.Context) {
	h.engine.Stop()
	c.JSON(http.StatusOK, h.engine.Status())
}

// EngineStatus reports the scheduler state
func (h *AlertHandler) EngineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}
