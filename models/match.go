package models

import "time"

// Stage это этап турнира, к которому относится матч.
type Stage string

const (
	StageGroup        Stage = "group"
	StageRoundOf16    Stage = "r16"
	StageQuarterfinal Stage = "quarter"
	StageSemifinal    Stage = "semi"
	StageThirdPlace   Stage = "third"
	StageFinal        Stage = "final"
)

// KnockoutStages lists the knockout stages in bracket order.
var KnockoutStages = []Stage{StageRoundOf16, StageQuarterfinal, StageSemifinal, StageThirdPlace, StageFinal}

func (s Stage) IsKnockout() bool {
	switch s {
	case StageRoundOf16, StageQuarterfinal, StageSemifinal, StageThirdPlace, StageFinal:
		return true
	}
	return false
}

// UnresolvedTeamID это плейсхолдер слота, участник которого ещё не определён.
const UnresolvedTeamID = "TBD"

type Match struct {
	ID          string    `json:"id"`
	Stage       Stage     `json:"stage"`
	GroupID     string    `json:"group,omitempty"`
	HomeTeamID  string    `json:"home_team"`
	AwayTeamID  string    `json:"away_team"`
	HomeScore   *int      `json:"home_score"`
	AwayScore   *int      `json:"away_score"`
	Date        time.Time `json:"date"`
	MatchNumber int       `json:"match_number,omitempty"`
}

// HasResult reports whether both scores are set. A half-filled pair is a
// legal transient state and counts as unplayed.
func (m *Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// IsResolved reports whether both participants are known.
func (m *Match) IsResolved() bool {
	return m.HomeTeamID != UnresolvedTeamID && m.AwayTeamID != UnresolvedTeamID
}

// Clone returns a deep copy; score pointers are never shared between copies.
func (m Match) Clone() Match {
	c := m
	c.HomeScore = cloneScore(m.HomeScore)
	c.AwayScore = cloneScore(m.AwayScore)
	return c
}

func CloneMatches(matches []Match) []Match {
	if matches == nil {
		return []Match{}
	}
	result := make([]Match, len(matches))
	for i := range matches {
		result[i] = matches[i].Clone()
	}
	return result
}

func cloneScore(s *int) *int {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
