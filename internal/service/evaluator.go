package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/streamguard/streamguard/internal/domain"
)

// EvaluateRule scores a rule against a metric snapshot. It is pure and
// safe to call concurrently for different rules against the same
// snapshot. Conditions are AND-combined in their configured order; a
// rule with zero conditions trivially triggers, so callers must avoid
// registering such rules.
func EvaluateRule(rule *domain.AlertRule, snap *domain.Snapshot) domain.EvaluationResult {
	result := domain.EvaluationResult{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Triggered:   true,
		Conditions:  make([]domain.ConditionResult, 0, len(rule.Conditions)),
		EvaluatedAt: time.Now(),
	}

	for _, cond := range rule.Conditions {
		value := snap.Metric(cond.Metric)
		passed := compare(cond.Operator, value, cond.Threshold)
		result.Conditions = append(result.Conditions, domain.ConditionResult{
			Condition:    cond,
			CurrentValue: value,
			Passed:       passed,
		})
		if !passed {
			result.Triggered = false
		}
	}

	return result
}

// compare applies the operator as a binary numeric predicate. Unknown
// operators never pass.
func compare(op domain.Operator, value, threshold float64) bool {
	switch op {
	case domain.OpGreaterThan:
		return value > threshold
	case domain.OpLessThan:
		return value < threshold
	case domain.OpEqual:
		return value == threshold
	case domain.OpNotEqual:
		return value != threshold
	case domain.OpGreaterOrEqual:
		return value >= threshold
	case domain.OpLessOrEqual:
		return value <= threshold
	default:
		return false
	}
}

// conditionSummary renders the per-condition outcomes into the event
// message, e.g. "latency > 500 (current: 612.00)".
func conditionSummary(results []domain.ConditionResult) string {
	parts := make([]string, 0, len(results))
	for _, cr := range results {
		parts = append(parts, fmt.Sprintf("%s %s %g (current: %.2f)",
			cr.Condition.Metric, cr.Condition.Operator, cr.Condition.Threshold, cr.CurrentValue))
	}
	return strings.Join(parts, ", ")
}
