package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_edits (
	id          BIGSERIAL PRIMARY KEY,
	session_id  UUID        NOT NULL,
	match_id    VARCHAR(16) NOT NULL,
	stage       VARCHAR(16) NOT NULL,
	home_score  SMALLINT    CHECK (home_score BETWEEN 0 AND 99),
	away_score  SMALLINT    CHECK (away_score BETWEEN 0 AND 99),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_score_edits_session ON score_edits (session_id, id);
`

// EnsureSchema creates the audit log table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
