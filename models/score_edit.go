package models

import "time"

// ScoreEdit это запись журнала изменений счёта в рамках одной сессии симуляции.
type ScoreEdit struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	MatchID   string    `json:"match_id" db:"match_id"`
	Stage     Stage     `json:"stage" db:"stage"`
	HomeScore *int      `json:"home_score" db:"home_score"`
	AwayScore *int      `json:"away_score" db:"away_score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
