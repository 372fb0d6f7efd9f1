// Package repository defines the durable snapshot contract for engine
// state and its backends.
package repository

import (
	"context"
	"time"

	"github.com/streamguard/streamguard/internal/domain"
)

// SchemaVersion is the current layout version of the persisted state
// document.
const SchemaVersion = 1

// EngineState is the single persisted document: all rules, targets,
// bounded event history, and cooldown entries keyed by rule id.
type EngineState struct {
	SchemaVersion int                          `json:"schema_version"`
	Rules         []*domain.AlertRule          `json:"rules"`
	Targets       []*domain.NotificationTarget `json:"targets"`
	History       []*domain.AlertEvent         `json:"history"`
	Cooldowns     map[string]time.Time         `json:"cooldowns"`
	SavedAt       time.Time                    `json:"saved_at"`
}

// NewEngineState returns an empty state document at the current schema
// version.
func NewEngineState() *EngineState {
	return &EngineState{
		SchemaVersion: SchemaVersion,
		Rules:         []*domain.AlertRule{},
		Targets:       []*domain.NotificationTarget{},
		History:       []*domain.AlertEvent{},
		Cooldowns:     map[string]time.Time{},
	}
}

// StateStore persists and restores the engine state document. The
// engine treats both operations as best-effort: a failed Load starts
// the engine empty, a failed Save is logged and not retried.
type StateStore interface {
	Load(ctx context.Context) (*EngineState, error)
	Save(ctx context.Context, state *EngineState) error
}
