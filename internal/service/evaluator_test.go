package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/streamguard/streamguard/internal/domain"
)

func TestCompareOperators(t *testing.T) {
	tests := []struct {
		name      string
		op        domain.Operator
		value     float64
		threshold float64
		expected  bool
	}{
		{"greater than passes", domain.OpGreaterThan, 600, 500, true},
		{"greater than at boundary", domain.OpGreaterThan, 500, 500, false},
		{"less than passes", domain.OpLessThan, 10, 50, true},
		{"less than at boundary", domain.OpLessThan, 50, 50, false},
		{"equal passes", domain.OpEqual, 1, 1, true},
		{"equal fails", domain.OpEqual, 1.1, 1, false},
		{"not equal passes", domain.OpNotEqual, 0, 1, true},
		{"not equal fails", domain.OpNotEqual, 1, 1, false},
		{"greater or equal at boundary", domain.OpGreaterOrEqual, 500, 500, true},
		{"greater or equal below", domain.OpGreaterOrEqual, 499.99, 500, false},
		{"less or equal at boundary", domain.OpLessOrEqual, 500, 500, true},
		{"less or equal above", domain.OpLessOrEqual, 500.01, 500, false},
		{"negative values", domain.OpLessThan, -5, 0, true},
		{"unknown operator never passes", domain.Operator("~"), 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compare(tt.op, tt.value, tt.threshold))
		})
	}
}

func TestEvaluateRuleAllConditionsMustPass(t *testing.T) {
	snap := &domain.Snapshot{
		Timestamp:  time.Now(),
		Latency:    612,
		ErrorCount: 3,
	}

	rule := &domain.AlertRule{
		ID:   "rule-1",
		Name: "high latency with errors",
		Conditions: []domain.Condition{
			{Metric: domain.MetricLatency, Operator: domain.OpGreaterThan, Threshold: 500},
			{Metric: domain.MetricErrorCount, Operator: domain.OpGreaterThan, Threshold: 5},
		},
	}

	result := EvaluateRule(rule, snap)

	assert.False(t, result.Triggered, "one failed condition must block the rule")
	assert.Len(t, result.Conditions, 2)
	assert.True(t, result.Conditions[0].Passed)
	assert.False(t, result.Conditions[1].Passed)
	assert.Equal(t, 612.0, result.Conditions[0].CurrentValue)
	assert.Equal(t, 3.0, result.Conditions[1].CurrentValue)
}

func TestEvaluateRuleTriggers(t *testing.T) {
	snap := &domain.Snapshot{Latency: 612, ErrorCount: 7}

	rule := &domain.AlertRule{
		ID: "rule-1",
		Conditions: []domain.Condition{
			{Metric: domain.MetricLatency, Operator: domain.OpGreaterThan, Threshold: 500},
			{Metric: domain.MetricErrorCount, Operator: domain.OpGreaterThan, Threshold: 5},
		},
	}

	result := EvaluateRule(rule, snap)
	assert.True(t, result.Triggered)
}

func TestEvaluateRuleUnknownMetricReadsZero(t *testing.T) {
	snap := &domain.Snapshot{Latency: 100}

	rule := &domain.AlertRule{
		ID: "rule-1",
		Conditions: []domain.Condition{
			{Metric: domain.MetricName("disk_usage"), Operator: domain.OpGreaterThan, Threshold: 10},
		},
	}

	result := EvaluateRule(rule, snap)
	assert.False(t, result.Triggered)
	assert.Equal(t, 0.0, result.Conditions[0].CurrentValue)

	// A threshold the zero value satisfies still triggers.
	rule.Conditions[0].Operator = domain.OpLessThan
	result = EvaluateRule(rule, snap)
	assert.True(t, result.Triggered)
}

func TestEvaluateRuleEmptyConditionsTrigger(t *testing.T) {
	rule := &domain.AlertRule{ID: "rule-1"}
	result := EvaluateRule(rule, &domain.Snapshot{})
	assert.True(t, result.Triggered)
	assert.Empty(t, result.Conditions)
}

func TestEvaluateRuleDeterministic(t *testing.T) {
	snap := &domain.Snapshot{CPUUsage: 91.5}
	rule := &domain.AlertRule{
		ID: "rule-1",
		Conditions: []domain.Condition{
			{Metric: domain.MetricCPUUsage, Operator: domain.OpGreaterOrEqual, Threshold: 90},
		},
	}

	first := EvaluateRule(rule, snap)
	for i := 0; i < 10; i++ {
		again := EvaluateRule(rule, snap)
		assert.Equal(t, first.Triggered, again.Triggered)
		assert.Equal(t, first.Conditions, again.Conditions)
	}
}

func TestConditionSummary(t *testing.T) {
	results := []domain.ConditionResult{
		{
			Condition:    domain.Condition{Metric: domain.MetricLatency, Operator: domain.OpGreaterThan, Threshold: 500},
			CurrentValue: 612,
		},
		{
			Condition:    domain.Condition{Metric: domain.MetricErrorCount, Operator: domain.OpGreaterOrEqual, Threshold: 5},
			CurrentValue: 7,
		},
	}

	summary := conditionSummary(results)
	assert.Equal(t, "latency > 500 (current: 612.00), error_count >= 5 (current: 7.00)", summary)
}
