package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/worldcup-simulator/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket lays out the knockout skeleton described by the topology:
// one match per rule, both slots unresolved, rounds numbered by the order
// in which stages first appear.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	topology := params.Topology
	if len(topology) == 0 {
		return nil, errors.New("cannot generate knockout bracket without a topology")
	}
	if err := topology.Validate(); err != nil {
		return nil, fmt.Errorf("invalid knockout topology: %w", err)
	}

	roundOf := make(map[models.Stage]int)
	orderInRound := make(map[models.Stage]int)
	matches := make([]*BracketMatch, 0, len(topology))

	for _, rule := range topology {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := roundOf[rule.Stage]; !ok {
			roundOf[rule.Stage] = len(roundOf) + 1
		}
		orderInRound[rule.Stage]++

		home, away := rule.Home, rule.Away
		matches = append(matches, &BracketMatch{
			UID:          rule.MatchID,
			Stage:        rule.Stage,
			Round:        roundOf[rule.Stage],
			OrderInRound: orderInRound[rule.Stage],
			HomeTeamID:   models.UnresolvedTeamID,
			AwayTeamID:   models.UnresolvedTeamID,
			HomeSource:   &home,
			AwaySource:   &away,
		})
	}

	return matches, nil
}
