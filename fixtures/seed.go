package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/models"
)

const (
	GroupMatchCount    = 48
	KnockoutMatchCount = 16
)

var (
	groupStageStart = time.Date(2026, time.June, 11, 0, 0, 0, 0, time.UTC)
	kickoffHours    = []int{13, 16, 19, 22}
)

type stageSchedule struct {
	start  time.Time
	perDay int
	hour   int
}

var knockoutSchedule = map[models.Stage]stageSchedule{
	models.StageRoundOf16:    {start: time.Date(2026, time.June, 28, 0, 0, 0, 0, time.UTC), perDay: 2, hour: 16},
	models.StageQuarterfinal: {start: time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), perDay: 2, hour: 16},
	models.StageSemifinal:    {start: time.Date(2026, time.July, 8, 0, 0, 0, 0, time.UTC), perDay: 1, hour: 19},
	models.StageThirdPlace:   {start: time.Date(2026, time.July, 18, 0, 0, 0, 0, time.UTC), perDay: 1, hour: 15},
	models.StageFinal:        {start: time.Date(2026, time.July, 19, 0, 0, 0, 0, time.UTC), perDay: 1, hour: 19},
}

// Seed is the initial tournament state: every score unset, every knockout
// slot unresolved.
type Seed struct {
	GroupMatches    []models.Match
	KnockoutMatches []models.Match
}

func (s *Seed) Clone() *Seed {
	return &Seed{
		GroupMatches:    models.CloneMatches(s.GroupMatches),
		KnockoutMatches: models.CloneMatches(s.KnockoutMatches),
	}
}

// Build generates the group schedule for every group and the knockout
// skeleton for the given topology.
func Build(ctx context.Context, topology brackets.Topology) (*Seed, error) {
	groupMatches, err := buildGroupMatches(ctx, Groups())
	if err != nil {
		return nil, err
	}
	knockout, err := buildKnockoutMatches(ctx, topology, len(groupMatches)+1)
	if err != nil {
		return nil, err
	}
	return &Seed{GroupMatches: groupMatches, KnockoutMatches: knockout}, nil
}

func buildGroupMatches(ctx context.Context, groups []models.Group) ([]models.Match, error) {
	generator := brackets.NewRoundRobinGenerator()

	// Matchday-major order: every group plays matchday 1 before anyone plays matchday 2.
	byRound := make(map[int][]*brackets.BracketMatch)
	groupIndex := make(map[string]int, len(groups))
	maxRound := 0
	for gi := range groups {
		group := &groups[gi]
		groupIndex[group.ID] = gi
		generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Group: group})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate fixtures for group %s: %w", generator.GetName(), group.ID, err)
		}
		for _, bm := range generated {
			byRound[bm.Round] = append(byRound[bm.Round], bm)
			maxRound = max(maxRound, bm.Round)
		}
	}

	matches := make([]models.Match, 0, GroupMatchCount)
	daysPerRound := (len(groups) + 1) / 2
	for round := 1; round <= maxRound; round++ {
		for _, bm := range byRound[round] {
			gi := groupIndex[bm.GroupID]
			day := (round-1)*daysPerRound + gi/2
			slot := (gi%2)*2 + (bm.OrderInRound-1)%2
			matches = append(matches, models.Match{
				ID:          bm.UID,
				Stage:       models.StageGroup,
				GroupID:     bm.GroupID,
				HomeTeamID:  bm.HomeTeamID,
				AwayTeamID:  bm.AwayTeamID,
				Date:        groupStageStart.AddDate(0, 0, day).Add(time.Duration(kickoffHours[slot]) * time.Hour),
				MatchNumber: len(matches) + 1,
			})
		}
	}
	return matches, nil
}

func buildKnockoutMatches(ctx context.Context, topology brackets.Topology, firstNumber int) ([]models.Match, error) {
	generator := brackets.NewSingleEliminationGenerator()
	generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Topology: topology})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate knockout skeleton: %w", generator.GetName(), err)
	}

	matches := make([]models.Match, 0, len(generated))
	for i, bm := range generated {
		sched, ok := knockoutSchedule[bm.Stage]
		if !ok {
			return nil, fmt.Errorf("no schedule for stage %q", bm.Stage)
		}
		day := (bm.OrderInRound - 1) / sched.perDay
		matches = append(matches, models.Match{
			ID:          bm.UID,
			Stage:       bm.Stage,
			HomeTeamID:  bm.HomeTeamID,
			AwayTeamID:  bm.AwayTeamID,
			Date:        sched.start.AddDate(0, 0, day).Add(time.Duration(sched.hour) * time.Hour),
			MatchNumber: firstNumber + i,
		})
	}
	return matches, nil
}
