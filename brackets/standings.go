package brackets

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Dosada05/worldcup-simulator/models"
)

// StandingsCalculator builds group tables from group-stage results.
// It holds only immutable reference data and is safe for concurrent use.
type StandingsCalculator struct {
	groups map[string]models.Group
	teams  map[string]models.Team
	lang   language.Tag
}

func NewStandingsCalculator(groups []models.Group, teams map[string]models.Team) *StandingsCalculator {
	index := make(map[string]models.Group, len(groups))
	for _, g := range groups {
		index[g.ID] = g
	}
	return &StandingsCalculator{
		groups: index,
		teams:  teams,
		lang:   language.English,
	}
}

func (c *StandingsCalculator) HasGroup(groupID string) bool {
	_, ok := c.groups[groupID]
	return ok
}

// Calculate returns one row per roster team of the group, sorted by points,
// goal difference, goals for (all descending) and display name. Unknown
// groups yield an empty slice.
func (c *StandingsCalculator) Calculate(groupID string, matches []models.Match) []models.TeamStanding {
	group, ok := c.groups[groupID]
	if !ok {
		return []models.TeamStanding{}
	}

	index := make(map[string]*models.TeamStanding, len(group.Teams))
	table := make([]*models.TeamStanding, 0, len(group.Teams))
	for _, teamID := range group.Teams {
		row := &models.TeamStanding{TeamID: teamID}
		index[teamID] = row
		table = append(table, row)
	}

	for i := range matches {
		m := &matches[i]
		if m.GroupID != groupID || !m.HasResult() {
			continue
		}
		home := index[m.HomeTeamID]
		away := index[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		applyResult(home, away, *m.HomeScore, *m.AwayScore)
	}

	// collate.Collator keeps internal buffers, so one per call.
	collator := collate.New(c.lang)
	slices.SortStableFunc(table, func(a, b *models.TeamStanding) int {
		if n := cmp.Compare(b.Points, a.Points); n != 0 {
			return n
		}
		if n := cmp.Compare(b.GoalDifference, a.GoalDifference); n != 0 {
			return n
		}
		if n := cmp.Compare(b.GoalsFor, a.GoalsFor); n != 0 {
			return n
		}
		return collator.CompareString(c.teamName(a.TeamID), c.teamName(b.TeamID))
	})

	result := make([]models.TeamStanding, len(table))
	for i, row := range table {
		result[i] = *row
	}
	return result
}

func (c *StandingsCalculator) teamName(teamID string) string {
	if t, ok := c.teams[teamID]; ok {
		return t.Name
	}
	return teamID
}

func applyResult(home, away *models.TeamStanding, homeScore, awayScore int) {
	home.Played++
	away.Played++
	home.GoalsFor += homeScore
	home.GoalsAgainst += awayScore
	away.GoalsFor += awayScore
	away.GoalsAgainst += homeScore

	switch {
	case homeScore > awayScore:
		home.Won++
		home.Points += models.PointsWin
		away.Lost++
		away.Points += models.PointsLoss
	case homeScore < awayScore:
		away.Won++
		away.Points += models.PointsWin
		home.Lost++
		home.Points += models.PointsLoss
	default:
		home.Drawn++
		away.Drawn++
		home.Points += models.PointsDraw
		away.Points += models.PointsDraw
	}

	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst
}
