package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/worldcup-simulator/models"
)

var (
	ErrScoreEditsNotFound = errors.New("no score edits found for session")
	ErrAuditLogDisabled   = errors.New("score edit audit log is disabled")
)

// ScoreEditRepository is an append-only journal of score edits. It is
// never used to restore a session.
type ScoreEditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, edit *models.ScoreEdit) error
	ListBySession(ctx context.Context, exec SQLExecutor, sessionID string) ([]*models.ScoreEdit, error)
	DeleteBySessions(ctx context.Context, exec SQLExecutor, sessionIDs []string) error
}

type postgresScoreEditRepository struct {
	db *sql.DB // Main DB connection, used when exec is nil
}

func NewPostgresScoreEditRepository(db *sql.DB) ScoreEditRepository {
	return &postgresScoreEditRepository{db: db}
}

func (r *postgresScoreEditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreEditRepository) Create(ctx context.Context, exec SQLExecutor, edit *models.ScoreEdit) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO score_edits (session_id, match_id, stage, home_score, away_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if edit.CreatedAt.IsZero() {
		edit.CreatedAt = time.Now().UTC()
	}
	err := executor.QueryRowContext(ctx, query,
		edit.SessionID, edit.MatchID, string(edit.Stage),
		nullableScore(edit.HomeScore), nullableScore(edit.AwayScore), edit.CreatedAt,
	).Scan(&edit.ID)
	if err != nil {
		return fmt.Errorf("failed to insert score edit for match %s: %w", edit.MatchID, err)
	}
	return nil
}

func (r *postgresScoreEditRepository) ListBySession(ctx context.Context, exec SQLExecutor, sessionID string) ([]*models.ScoreEdit, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, session_id, match_id, stage, home_score, away_score, created_at
		FROM score_edits
		WHERE session_id = $1
		ORDER BY id ASC`
	rows, err := executor.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edits := make([]*models.ScoreEdit, 0)
	for rows.Next() {
		var (
			e          models.ScoreEdit
			stage      string
			home, away sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.MatchID, &stage, &home, &away, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Stage = models.Stage(stage)
		e.HomeScore = scoreFromNull(home)
		e.AwayScore = scoreFromNull(away)
		edits = append(edits, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, ErrScoreEditsNotFound
	}
	return edits, nil
}

func (r *postgresScoreEditRepository) DeleteBySessions(ctx context.Context, exec SQLExecutor, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM score_edits WHERE session_id = ANY($1)`, pq.Array(sessionIDs))
	return err
}

func nullableScore(s *int) sql.NullInt64 {
	if s == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*s), Valid: true}
}

func scoreFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// nopScoreEditRepository is used when no database is configured.
type nopScoreEditRepository struct{}

func NewNopScoreEditRepository() ScoreEditRepository {
	return nopScoreEditRepository{}
}

func (nopScoreEditRepository) Create(context.Context, SQLExecutor, *models.ScoreEdit) error {
	return nil
}

func (nopScoreEditRepository) ListBySession(context.Context, SQLExecutor, string) ([]*models.ScoreEdit, error) {
	return nil, ErrAuditLogDisabled
}

func (nopScoreEditRepository) DeleteBySessions(context.Context, SQLExecutor, []string) error {
	return nil
}
