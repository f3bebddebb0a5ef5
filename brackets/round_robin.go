package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/worldcup-simulator/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket schedules a single round-robin for one group using the
// circle method: the first team stays fixed, the rest rotate each matchday.
// UIDs are the group ID followed by the running match order ("A1".."A6").
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	group := params.Group
	if group == nil {
		return nil, errors.New("RoundRobinGenerator: group is required")
	}
	if len(group.Teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams in group %s (found %d, min 2 required)", group.ID, len(group.Teams))
	}

	slots := make([]string, len(group.Teams))
	copy(slots, group.Teams)
	if len(slots)%2 == 1 {
		slots = append(slots, "") // bye
	}
	n := len(slots)

	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	for round := 1; round < n; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// Alternate the fixed team's side so it is not always at home.
			if i == 0 && round%2 == 0 {
				home, away = away, home
			}
			order++
			matches = append(matches, &BracketMatch{
				Stage:        models.StageGroup,
				GroupID:      group.ID,
				Round:        round,
				OrderInRound: order,
				HomeTeamID:   home,
				AwayTeamID:   away,
			})
		}
		// rotate everything but the first slot clockwise
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].OrderInRound < matches[j].OrderInRound
	})
	for i, m := range matches {
		m.UID = fmt.Sprintf("%s%d", group.ID, i+1)
	}

	return matches, nil
}
