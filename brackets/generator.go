package brackets

import (
	"context"

	"github.com/Dosada05/worldcup-simulator/models"
)

type GenerateBracketParams struct {
	Group    *models.Group // group stage generators
	Topology Topology      // knockout generators
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a fixture skeleton: pairing and ordering without dates.
type BracketMatch struct {
	UID          string
	Stage        models.Stage
	GroupID      string
	Round        int
	OrderInRound int

	HomeTeamID string
	AwayTeamID string

	// Only set for knockout skeletons.
	HomeSource *SlotSource
	AwaySource *SlotSource
}
