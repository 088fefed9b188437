package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jason-s-yu/blackjack/internal/historian"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_actions (
	id           UUID PRIMARY KEY,
	game_id      TEXT NOT NULL,
	action_index INTEGER NOT NULL,
	actor        TEXT NOT NULL,
	action_type  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS session_actions_game_idx ON session_actions (game_id, action_index);
`

const insertAction = `
	INSERT INTO session_actions (id, game_id, action_index, actor, action_type, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// EnsureSchema creates the action table if it is missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create session_actions: %w", err)
	}
	return nil
}

// ActionSink writes historian batches into session_actions.
type ActionSink struct {
	pool *pgxpool.Pool
}

var _ historian.Sink = (*ActionSink)(nil)

// NewActionSink wraps pool as a historian sink.
func NewActionSink(pool *pgxpool.Pool) *ActionSink {
	return &ActionSink{pool: pool}
}

// WriteActions inserts recs in one transaction. Records already stored are
// skipped, so a retried batch is harmless.
func (s *ActionSink) WriteActions(ctx context.Context, recs []historian.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			batch.Queue(insertAction,
				rec.ID, rec.GameID, rec.ActionIndex, rec.Actor, rec.ActionType,
				time.UnixMilli(rec.Timestamp).UTC(),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert %d actions: %w", len(recs), err)
	}
	return nil
}

// ActionsForGame returns the archived actions of one game in order.
func (s *ActionSink) ActionsForGame(ctx context.Context, gameID string) ([]historian.ActionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, game_id, action_index, actor, action_type, created_at
		FROM session_actions
		WHERE game_id = $1
		ORDER BY action_index
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []historian.ActionRecord
	for rows.Next() {
		var rec historian.ActionRecord
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.ActionIndex, &rec.Actor, &rec.ActionType, &created); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		rec.Timestamp = created.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}
