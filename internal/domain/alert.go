package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity of an alert rule and the events it produces.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// MetricName identifies a field of a metric snapshot.
type MetricName string

const (
	MetricLatency     MetricName = "latency"
	MetricThroughput  MetricName = "throughput"
	MetricErrorCount  MetricName = "error_count"
	MetricRuleStatus  MetricName = "rule_status"
	MetricMemoryUsage MetricName = "memory_usage"
	MetricCPUUsage    MetricName = "cpu_usage"
)

// Operator is a binary numeric comparison applied to a condition.
type Operator string

const (
	OpGreaterThan    Operator = ">"
	OpLessThan       Operator = "<"
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
)

// EventStatus is the lifecycle status of an alert event. Transitions are
// one-way: triggered -> acknowledged -> resolved, with silenced reachable
// from any status. There is no transition out of resolved or silenced.
type EventStatus string

const (
	StatusTriggered    EventStatus = "triggered"
	StatusAcknowledged EventStatus = "acknowledged"
	StatusResolved     EventStatus = "resolved"
	StatusSilenced     EventStatus = "silenced"
)

// AuthType selects the computed auth header for a notification target.
// Exactly one scheme applies per target.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
)

// Condition is a single metric/operator/threshold comparison.
// Duration is part of the data model but is not enforced by the
// evaluator: conditions trigger instantly on a single snapshot
// crossing the threshold.
type Condition struct {
	Metric    MetricName `json:"metric"`
	Operator  Operator   `json:"operator"`
	Threshold float64    `json:"threshold"`
	Duration  int        `json:"duration,omitempty"` // seconds, declared only
}

// AlertRule is a named set of AND-combined threshold conditions plus
// notification targets and a cooldown. The engine mutates only
// TriggerCount and LastTriggered; everything else is operator-owned.
type AlertRule struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Enabled         bool        `json:"enabled"`
	Severity        Severity    `json:"severity"`
	Conditions      []Condition `json:"conditions"`
	RuleFilter      string      `json:"rule_filter,omitempty"` // optional stream rule id scope
	TargetIDs       []string    `json:"target_ids"`
	CooldownMinutes int         `json:"cooldown_minutes"`
	TriggerCount    int         `json:"trigger_count"`
	LastTriggered   *time.Time  `json:"last_triggered,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CooldownWindow returns the suppression window for the rule.
func (r *AlertRule) CooldownWindow() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// NotificationTarget is a configured webhook endpoint with its own
// retry, auth, and template settings. SuccessCount, ErrorCount,
// LastSuccess, and LastError are maintained by the delivery path.
type NotificationTarget struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`

	AuthType      AuthType `json:"auth_type"`
	BearerToken   string   `json:"bearer_token,omitempty"`
	BasicUser     string   `json:"basic_user,omitempty"`
	BasicPassword string   `json:"basic_password,omitempty"`
	APIKeyHeader  string   `json:"api_key_header,omitempty"`
	APIKeyValue   string   `json:"api_key_value,omitempty"`

	// PayloadTemplate supports literal {{alert.*}} placeholder
	// substitution. Substituted values are not escaped; templates must
	// account for values containing template-breaking characters.
	PayloadTemplate string `json:"payload_template,omitempty"`

	RetryCount        int  `json:"retry_count"`
	RetryDelaySeconds int  `json:"retry_delay_seconds"`
	TimeoutSeconds    int  `json:"timeout_seconds"`
	Enabled           bool `json:"enabled"`

	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    *time.Time `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlertEvent is one concrete occurrence of a rule tripping.
// WebhooksSent always equals WebhooksSucceeded + WebhooksFailed.
type AlertEvent struct {
	ID       string      `json:"id"`
	RuleID   string      `json:"rule_id"`
	RuleName string      `json:"rule_name"`
	Severity Severity    `json:"severity"`
	Status   EventStatus `json:"status"`
	Message  string      `json:"message"`

	// Measured value and threshold of the first condition at trigger
	// time. Multi-condition rules surface only the first condition's
	// numbers here.
	MetricValue float64 `json:"metric_value"`
	Threshold   float64 `json:"threshold"`

	TriggeredAt    time.Time  `json:"triggered_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	WebhooksSent      int `json:"webhooks_sent"`
	WebhooksSucceeded int `json:"webhooks_succeeded"`
	WebhooksFailed    int `json:"webhooks_failed"`
}

// NewEventID generates a time-prefixed random event id.
func NewEventID(now time.Time) string {
	return fmt.Sprintf("evt_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Snapshot is one timestamped bundle of current metric values used as
// evaluation input. Any numeric values are tolerated, including zero
// and negative.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	RuleID      string    `json:"rule_id,omitempty"`
	Latency     float64   `json:"latency"`
	Throughput  float64   `json:"throughput"`
	ErrorCount  float64   `json:"error_count"`
	MemoryUsage float64   `json:"memory_usage"`
	CPUUsage    float64   `json:"cpu_usage"`
	RuleStatus  float64   `json:"rule_status"` // 0 stopped, 1 running
}

// Metric extracts the named metric from the snapshot. Unknown metric
// names yield 0 rather than an error.
func (s *Snapshot) Metric(name MetricName) float64 {
	switch name {
	case MetricLatency:
		return s.Latency
	case MetricThroughput:
		return s.Throughput
	case MetricErrorCount:
		return s.ErrorCount
	case MetricRuleStatus:
		return s.RuleStatus
	case MetricMemoryUsage:
		return s.MemoryUsage
	case MetricCPUUsage:
		return s.CPUUsage
	default:
		return 0
	}
}

// ConditionResult is the per-condition outcome of one evaluation.
type ConditionResult struct {
	Condition    Condition `json:"condition"`
	CurrentValue float64   `json:"current_value"`
	Passed       bool      `json:"passed"`
}

// EvaluationResult is the per-rule outcome of one evaluation pass.
// Triggered reports the raw condition outcome regardless of cooldown;
// Suppressed marks rules whose event emission was gated by cooldown.
type EvaluationResult struct {
	RuleID      string            `json:"rule_id"`
	RuleName    string            `json:"rule_name"`
	Triggered   bool              `json:"triggered"`
	Suppressed  bool              `json:"suppressed"`
	Conditions  []ConditionResult `json:"conditions"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

// DeliveryResult is the outcome of delivering one event to one target,
// retries included. Retries is the index of the final attempt: 0 means
// the first attempt settled the delivery.
type DeliveryResult struct {
	TargetID   string `json:"target_id"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Retries    int    `json:"retries"`
	DurationMs int64  `json:"duration_ms"`
}
