// Package postgres implements the engine state store as a single-row
// jsonb document in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamguard/streamguard/internal/repository"
)

// StateRepository stores the engine state document in the engine_state
// table. The table holds exactly one row.
type StateRepository struct {
	db *pgxpool.Pool
}

// NewStateRepository creates a new state repository.
func NewStateRepository(db *pgxpool.Pool) *StateRepository {
	return &StateRepository{db: db}
}

type stateRow struct {
	SchemaVersion int       `db:"schema_version"`
	State         []byte    `db:"state"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Load reads the state document. An empty table yields an empty state.
func (r *StateRepository) Load(ctx context.Context) (*repository.EngineState, error) {
	var row stateRow
	query := `SELECT schema_version, state, updated_at FROM engine_state WHERE id = 1`
	if err := pgxscan.Get(ctx, r.db, &row, query); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.NewEngineState(), nil
		}
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}

	if row.SchemaVersion > repository.SchemaVersion {
		return nil, fmt.Errorf("stored schema version %d is newer than supported version %d",
			row.SchemaVersion, repository.SchemaVersion)
	}

	var state repository.EngineState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, fmt.Errorf("failed to decode engine state: %w", err)
	}
	if state.Cooldowns == nil {
		state.Cooldowns = map[string]time.Time{}
	}
	return &state, nil
}

// Save upserts the state document into the single row.
func (r *StateRepository) Save(ctx context.Context, state *repository.EngineState) error {
	state.SchemaVersion = repository.SchemaVersion

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode engine state: %w", err)
	}

	query := `
		INSERT INTO engine_state (id, schema_version, state, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, repository.SchemaVersion, data, time.Now()); err != nil {
		return fmt.Errorf("failed to save engine state: %w", err)
	}
	return nil
}
