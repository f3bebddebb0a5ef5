package models

// TeamStanding is derived from group results and never stored on its own.
type TeamStanding struct {
	TeamID         string `json:"team_id"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)
