package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/metrics"
	"github.com/streamguard/streamguard/internal/repository"
	"github.com/streamguard/streamguard/internal/source"
)

// AlertEngine evaluates alert rules against metric snapshots, delivers
// notifications for rules that trip, and owns the event history and
// its lifecycle. Rule, target, cooldown, and history state are
// process-wide and guarded by the engine mutex; durability is a
// best-effort snapshot through the state store.
type AlertEngine struct {
	mu      sync.RWMutex
	rules   map[string]*domain.AlertRule
	targets map[string]*domain.NotificationTarget
	history []*domain.AlertEvent // append order, oldest first

	cooldowns *CooldownTracker
	deliverer *DeliveryService
	bus       *ListenerBus
	store     repository.StateStore
	source    source.SnapshotProvider
	logger    *zap.Logger

	interval     time.Duration
	historyLimit int

	runMu    sync.Mutex
	running  bool
	stopChan chan struct{}
	tickMu   sync.Mutex
}

// EngineOptions tunes the engine.
type EngineOptions struct {
	EvaluationInterval time.Duration
	HistoryLimit       int
}

// HistoryFilter narrows history retrieval. Zero values mean "no
// filter"; Limit 0 returns the full retained history.
type HistoryFilter struct {
	Limit    int
	Severity domain.Severity
	Status   domain.EventStatus
	Since    time.Time
}

// EngineStatus is the caller-queryable scheduler and state summary.
type EngineStatus struct {
	Running            bool   `json:"running"`
	EvaluationInterval string `json:"evaluation_interval"`
	Rules              int    `json:"rules"`
	Targets            int    `json:"targets"`
	HistorySize        int    `json:"history_size"`
}

// NewAlertEngine creates the engine and restores persisted state. A
// failed load is logged and the engine starts empty.
func NewAlertEngine(
	opts EngineOptions,
	store repository.StateStore,
	src source.SnapshotProvider,
	deliverer *DeliveryService,
	bus *ListenerBus,
	logger *zap.Logger,
) *AlertEngine {
	if opts.EvaluationInterval <= 0 {
		opts.EvaluationInterval = 10 * time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 1000
	}

	e := &AlertEngine{
		rules:        make(map[string]*domain.AlertRule),
		targets:      make(map[string]*domain.NotificationTarget),
		cooldowns:    NewCooldownTracker(),
		deliverer:    deliverer,
		bus:          bus,
		store:        store,
		source:       src,
		logger:       logger,
		interval:     opts.EvaluationInterval,
		historyLimit: opts.HistoryLimit,
	}
	e.restore()
	return e
}

// restore loads the persisted state document, best-effort.
func (e *AlertEngine) restore() {
	state, err := e.store.Load(context.Background())
	if err != nil {
		e.logger.Warn("failed to load engine state, starting empty", zap.Error(err))
		return
	}

	e.mu.Lock()
	for _, rule := range state.Rules {
		r := *rule
		e.rules[r.ID] = &r
	}
	for _, target := range state.Targets {
		t := *target
		e.targets[t.ID] = &t
	}
	for _, event := range state.History {
		ev := *event
		e.history = append(e.history, &ev)
	}
	if excess := len(e.history) - e.historyLimit; excess > 0 {
		e.history = e.history[excess:]
	}
	e.mu.Unlock()

	e.cooldowns.Restore(state.Cooldowns)

	e.logger.Info("engine state restored",
		zap.Int("rules", len(state.Rules)),
		zap.Int("targets", len(state.Targets)),
		zap.Int("history", len(state.History)),
	)
}

// persist snapshots current state to the store. Failures are logged
// and not retried.
func (e *AlertEngine) persist(ctx context.Context) {
	state := repository.NewEngineState()
	state.SavedAt = time.Now()

	e.mu.RLock()
	for _, rule := range e.rules {
		r := *rule
		state.Rules = append(state.Rules, &r)
	}
	for _, target := range e.targets {
		t := *target
		state.Targets = append(state.Targets, &t)
	}
	for _, event := range e.history {
		ev := *event
		state.History = append(state.History, &ev)
	}
	e.mu.RUnlock()

	state.Cooldowns = e.cooldowns.Export()

	if err := e.store.Save(ctx, state); err != nil {
		metrics.StateSavesTotal.WithLabelValues("failed").Inc()
		e.logger.Error("failed to save engine state", zap.Error(err))
		return
	}
	metrics.StateSavesTotal.WithLabelValues("success").Inc()
}

// RegisterRule adds or replaces a rule and persists immediately. The
// engine assumes the rule is structurally valid; registration-time
// validation belongs to the API layer.
func (e *AlertEngine) RegisterRule(ctx context.Context, rule *domain.AlertRule) *domain.AlertRule {
	now := time.Now()

	e.mu.Lock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if existing, ok := e.rules[rule.ID]; ok {
		rule.CreatedAt = existing.CreatedAt
		rule.TriggerCount = existing.TriggerCount
		rule.LastTriggered = existing.LastTriggered
	} else if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	stored := *rule
	e.rules[rule.ID] = &stored
	e.mu.Unlock()

	e.logger.Info("rule registered", zap.String("rule_id", rule.ID), zap.String("name", rule.Name))
	e.persist(ctx)
	return rule
}

// UnregisterRule removes a rule and purges its cooldown entry. It
// reports whether the rule existed.
func (e *AlertEngine) UnregisterRule(ctx context.Context, id string) bool {
	e.mu.Lock()
	_, ok := e.rules[id]
	delete(e.rules, id)
	e.mu.Unlock()

	e.cooldowns.Remove(id)
	if ok {
		e.logger.Info("rule unregistered", zap.String("rule_id", id))
		e.persist(ctx)
	}
	return ok
}

// RegisterTarget adds or replaces a notification target and persists
// immediately.
func (e *AlertEngine) RegisterTarget(ctx context.Context, target *domain.NotificationTarget) *domain.NotificationTarget {
	now := time.Now()

	e.mu.Lock()
	if target.ID == "" {
		target.ID = uuid.NewString()
	}
	if existing, ok := e.targets[target.ID]; ok {
		target.CreatedAt = existing.CreatedAt
		target.SuccessCount = existing.SuccessCount
		target.ErrorCount = existing.ErrorCount
		target.LastSuccess = existing.LastSuccess
		target.LastError = existing.LastError
	} else if target.CreatedAt.IsZero() {
		target.CreatedAt = now
	}
	target.UpdatedAt = now
	stored := *target
	e.targets[target.ID] = &stored
	e.mu.Unlock()

	e.logger.Info("target registered", zap.String("target_id", target.ID), zap.String("url", target.URL))
	e.persist(ctx)
	return target
}

// UnregisterTarget removes a notification target. It reports whether
// the target existed.
func (e *AlertEngine) UnregisterTarget(ctx context.Context, id string) bool {
	e.mu.Lock()
	_, ok := e.targets[id]
	delete(e.targets, id)
	e.mu.Unlock()

	if ok {
		e.logger.Info("target unregistered", zap.String("target_id", id))
		e.persist(ctx)
	}
	return ok
}

// ListRules returns copies of all registered rules.
func (e *AlertEngine) ListRules() []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rules := make([]*domain.AlertRule, 0, len(e.rules))
	for _, rule := range e.rules {
		r := *rule
		rules = append(rules, &r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.Before(rules[j].CreatedAt) })
	return rules
}

// ListTargets returns copies of all registered targets.
func (e *AlertEngine) ListTargets() []*domain.NotificationTarget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	targets := make([]*domain.NotificationTarget, 0, len(e.targets))
	for _, target := range e.targets {
		t := *target
		targets = append(targets, &t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].CreatedAt.Before(targets[j].CreatedAt) })
	return targets
}

// Subscribe registers an event listener and returns its unsubscribe
// function.
func (e *AlertEngine) Subscribe(fn Listener) func() {
	return e.bus.Subscribe(fn)
}

// EvaluateAll scores every enabled rule against one snapshot. When
// snap is nil a fresh snapshot is fetched from the source. Rules that
// trip but sit inside their cooldown window are reported with
// Suppressed set; only event emission is gated, not the evaluation
// result. Callable on demand, independent of the scheduler.
func (e *AlertEngine) EvaluateAll(ctx context.Context, snap *domain.Snapshot) []domain.EvaluationResult {
	if snap == nil {
		fetched, err := e.source.FetchSnapshot(ctx)
		if err != nil {
			e.logger.Warn("failed to fetch metric snapshot", zap.Error(err))
			return nil
		}
		snap = fetched
	}

	metrics.EvaluationTicksTotal.Inc()

	rules := e.enabledRules()
	results := make([]domain.EvaluationResult, 0, len(rules))

	for i := range rules {
		rule := &rules[i]
		metrics.RulesEvaluatedTotal.Inc()

		result := EvaluateRule(rule, snap)
		if result.Triggered {
			metrics.RulesTriggeredTotal.Inc()
			// Atomic check-then-record so a manual evaluation racing a
			// scheduled tick cannot double-fire the same rule.
			if e.cooldowns.TryAcquire(rule.ID, rule.CooldownWindow(), time.Now()) {
				e.trigger(ctx, *rule, result)
			} else {
				result.Suppressed = true
				metrics.RulesSuppressedTotal.Inc()
			}
		}
		results = append(results, result)
	}

	return results
}

// enabledRules snapshots all enabled rules as values so evaluation
// iterates stable data while lifecycle callers mutate the maps.
func (e *AlertEngine) enabledRules() []domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rules := make([]domain.AlertRule, 0, len(e.rules))
	for _, rule := range e.rules {
		if rule.Enabled {
			rules = append(rules, *rule)
		}
	}
	return rules
}

// trigger runs the delivery pipeline for one tripped rule: build the
// event, deliver to every enabled target concurrently, join, then
// update counters, append history, notify listeners, and persist.
func (e *AlertEngine) trigger(ctx context.Context, rule domain.AlertRule, result domain.EvaluationResult) {
	now := time.Now()

	event := &domain.AlertEvent{
		ID:          domain.NewEventID(now),
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Severity:    rule.Severity,
		Status:      domain.StatusTriggered,
		Message:     conditionSummary(result.Conditions),
		TriggeredAt: now,
	}
	if len(result.Conditions) > 0 {
		event.MetricValue = result.Conditions[0].CurrentValue
		event.Threshold = result.Conditions[0].Condition.Threshold
	}

	targets := e.deliverableTargets(rule.TargetIDs)

	deliveries := make([]domain.DeliveryResult, len(targets))
	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			deliveries[i] = e.deliverer.Deliver(ctx, &targets[i], event)
		}(i)
	}
	wg.Wait()

	e.mu.Lock()
	event.WebhooksSent = len(deliveries)
	for _, d := range deliveries {
		if d.Success {
			event.WebhooksSucceeded++
		} else {
			event.WebhooksFailed++
		}
		if target, ok := e.targets[d.TargetID]; ok {
			ts := now
			if d.Success {
				target.SuccessCount++
				target.LastSuccess = &ts
			} else {
				target.ErrorCount++
				target.LastError = &ts
			}
		}
	}
	if stored, ok := e.rules[rule.ID]; ok {
		stored.TriggerCount++
		ts := now
		stored.LastTriggered = &ts
	}
	e.history = append(e.history, event)
	if excess := len(e.history) - e.historyLimit; excess > 0 {
		e.history = e.history[excess:]
	}
	published := *event
	e.mu.Unlock()

	metrics.EventsEmittedTotal.Inc()
	e.logger.Info("alert triggered",
		zap.String("event_id", event.ID),
		zap.String("rule_id", rule.ID),
		zap.String("severity", string(rule.Severity)),
		zap.Int("webhooks_sent", published.WebhooksSent),
		zap.Int("webhooks_failed", published.WebhooksFailed),
	)

	e.bus.Publish(&published)
	e.persist(ctx)
}

// deliverableTargets resolves a rule's target ids to value copies of
// the enabled targets.
func (e *AlertEngine) deliverableTargets(ids []string) []domain.NotificationTarget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	targets := make([]domain.NotificationTarget, 0, len(ids))
	for _, id := range ids {
		if target, ok := e.targets[id]; ok && target.Enabled {
			targets = append(targets, *target)
		}
	}
	return targets
}

// GetHistory returns retained events newest-first by trigger time.
func (e *AlertEngine) GetHistory(filter HistoryFilter) []*domain.AlertEvent {
	e.mu.RLock()
	events := make([]*domain.AlertEvent, 0, len(e.history))
	for _, event := range e.history {
		if filter.Severity != "" && event.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && event.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && event.TriggeredAt.Before(filter.Since) {
			continue
		}
		ev := *event
		events = append(events, &ev)
	}
	e.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool { return events[i].TriggeredAt.After(events[j].TriggeredAt) })
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events
}

// AcknowledgeAlert moves a triggered event to acknowledged. Missing
// events and events past triggered are tolerated as no-ops.
func (e *AlertEngine) AcknowledgeAlert(ctx context.Context, eventID, who string) {
	e.mu.Lock()
	event := e.findEventLocked(eventID)
	if event == nil || event.Status != domain.StatusTriggered {
		e.mu.Unlock()
		return
	}
	now := time.Now()
	event.Status = domain.StatusAcknowledged
	event.AcknowledgedAt = &now
	event.AcknowledgedBy = who
	published := *event
	e.mu.Unlock()

	e.logger.Info("alert acknowledged", zap.String("event_id", eventID), zap.String("by", who))
	e.bus.Publish(&published)
	e.persist(ctx)
}

// ResolveAlert moves a triggered or acknowledged event to resolved.
func (e *AlertEngine) ResolveAlert(ctx context.Context, eventID string) {
	e.mu.Lock()
	event := e.findEventLocked(eventID)
	if event == nil || (event.Status != domain.StatusTriggered && event.Status != domain.StatusAcknowledged) {
		e.mu.Unlock()
		return
	}
	now := time.Now()
	event.Status = domain.StatusResolved
	event.ResolvedAt = &now
	published := *event
	e.mu.Unlock()

	e.logger.Info("alert resolved", zap.String("event_id", eventID))
	e.bus.Publish(&published)
	e.persist(ctx)
}

// SilenceAlert moves any existing event to silenced, regardless of its
// current status. The asymmetry with acknowledge/resolve is
// deliberate.
func (e *AlertEngine) SilenceAlert(ctx context.Context, eventID string) {
	e.mu.Lock()
	event := e.findEventLocked(eventID)
	if event == nil {
		e.mu.Unlock()
		return
	}
	event.Status = domain.StatusSilenced
	published := *event
	e.mu.Unlock()

	e.logger.Info("alert silenced", zap.String("event_id", eventID))
	e.bus.Publish(&published)
	e.persist(ctx)
}

// findEventLocked scans the history for an event id, newest first.
// Callers hold the engine mutex.
func (e *AlertEngine) findEventLocked(eventID string) *domain.AlertEvent {
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].ID == eventID {
			return e.history[i]
		}
	}
	return nil
}

// Persist forces a state save outside the mutation paths. Used during
// shutdown.
func (e *AlertEngine) Persist(ctx context.Context) {
	e.persist(ctx)
}

// Status reports the scheduler state and state sizes.
func (e *AlertEngine) Status() EngineStatus {
	e.mu.RLock()
	rules, targets, history := len(e.rules), len(e.targets), len(e.history)
	e.mu.RUnlock()

	return EngineStatus{
		Running:            e.Running(),
		EvaluationInterval: e.interval.String(),
		Rules:              rules,
		Targets:            targets,
		HistorySize:        history,
	}
}
