package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/internal/repository"
)

func TestLoadMissingFileYieldsEmptyState(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"))

	state, err := store.Load(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, repository.SchemaVersion, state.SchemaVersion)
	assert.Empty(t, state.Rules)
	assert.Empty(t, state.Targets)
	assert.Empty(t, state.History)
	assert.NotNil(t, state.Cooldowns)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	state := repository.NewEngineState()
	state.Rules = append(state.Rules, &domain.AlertRule{
		ID:      "rule-1",
		Name:    "high latency",
		Enabled: true,
		Conditions: []domain.Condition{
			{Metric: domain.MetricLatency, Operator: domain.OpGreaterThan, Threshold: 500},
		},
		CooldownMinutes: 15,
		CreatedAt:       now,
	})
	state.Targets = append(state.Targets, &domain.NotificationTarget{
		ID:      "target-1",
		Name:    "ops webhook",
		URL:     "https://hooks.example.com/abc",
		Enabled: true,
	})
	state.History = append(state.History, &domain.AlertEvent{
		ID:          "evt_1",
		RuleID:      "rule-1",
		Status:      domain.StatusTriggered,
		TriggeredAt: now,
	})
	state.Cooldowns["rule-1"] = now
	state.SavedAt = now

	assert.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, state.Rules, loaded.Rules)
	assert.Equal(t, state.Targets, loaded.Targets)
	assert.Equal(t, state.History, loaded.History)
	assert.True(t, state.Cooldowns["rule-1"].Equal(loaded.Cooldowns["rule-1"]))
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	store := NewStore(path)
	ctx := context.Background()

	first := repository.NewEngineState()
	first.Rules = append(first.Rules, &domain.AlertRule{ID: "rule-1"})
	assert.NoError(t, store.Save(ctx, first))

	second := repository.NewEngineState()
	second.Rules = append(second.Rules, &domain.AlertRule{ID: "rule-2"})
	assert.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded.Rules, 1)
	assert.Equal(t, "rule-2", loaded.Rules[0].ID)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99}`), 0o644))

	_, err := NewStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schema version")
}
