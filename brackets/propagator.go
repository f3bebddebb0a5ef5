package brackets

import (
	"github.com/Dosada05/worldcup-simulator/models"
)

// Outcome is the resolved result of a knockout match. Both fields are the
// unresolved placeholder while the match has no result.
type Outcome struct {
	Winner string
	Loser  string
}

var unresolvedOutcome = Outcome{Winner: models.UnresolvedTeamID, Loser: models.UnresolvedTeamID}

// Propagator recomputes knockout team slots from group results and
// upstream knockout results. Scores are never touched.
type Propagator struct {
	topology   Topology
	standings  *StandingsCalculator
	tieBreaker TieBreaker
}

func NewPropagator(topology Topology, standings *StandingsCalculator, tieBreaker TieBreaker) *Propagator {
	return &Propagator{
		topology:   topology,
		standings:  standings,
		tieBreaker: tieBreaker,
	}
}

// pass holds per-propagation memo tables. A drawn match is decided once
// per pass, so its winner and loser stay complementary.
type pass struct {
	p            *Propagator
	groupMatches []models.Match
	matches      []models.Match
	index        map[string]int
	tables       map[string][]models.TeamStanding
	outcomes     map[string]Outcome
}

// Propagate returns an updated copy of knockoutMatches; neither input is
// modified.
func (p *Propagator) Propagate(groupMatches, knockoutMatches []models.Match) []models.Match {
	result := models.CloneMatches(knockoutMatches)
	ps := &pass{
		p:            p,
		groupMatches: groupMatches,
		matches:      result,
		index:        make(map[string]int, len(result)),
		tables:       make(map[string][]models.TeamStanding),
		outcomes:     make(map[string]Outcome),
	}
	for i := range result {
		ps.index[result[i].ID] = i
	}

	for _, rule := range p.topology {
		i, ok := ps.index[rule.MatchID]
		if !ok {
			continue
		}
		result[i].HomeTeamID = ps.resolve(rule.Home)
		result[i].AwayTeamID = ps.resolve(rule.Away)
	}
	return result
}

func (ps *pass) resolve(src SlotSource) string {
	switch src.Kind {
	case SourceGroupRank:
		table, ok := ps.tables[src.GroupID]
		if !ok {
			table = ps.p.standings.Calculate(src.GroupID, ps.groupMatches)
			ps.tables[src.GroupID] = table
		}
		if src.Rank < len(table) && table[src.Rank].Played > 0 {
			return table[src.Rank].TeamID
		}
		return models.UnresolvedTeamID
	case SourceMatchWinner:
		return ps.outcome(src.MatchID).Winner
	case SourceMatchLoser:
		return ps.outcome(src.MatchID).Loser
	}
	return models.UnresolvedTeamID
}

func (ps *pass) outcome(matchID string) Outcome {
	if o, ok := ps.outcomes[matchID]; ok {
		return o
	}
	i, ok := ps.index[matchID]
	if !ok {
		return unresolvedOutcome
	}
	o := ResolveOutcome(&ps.matches[i], ps.p.tieBreaker)
	ps.outcomes[matchID] = o
	return o
}

// ResolveOutcome decides a single match. Draws go to the tie breaker; a nil
// tie breaker leaves drawn matches unresolved.
func ResolveOutcome(m *models.Match, tb TieBreaker) Outcome {
	if m == nil || !m.HasResult() {
		return unresolvedOutcome
	}
	home, away := *m.HomeScore, *m.AwayScore
	switch {
	case home > away:
		return Outcome{Winner: m.HomeTeamID, Loser: m.AwayTeamID}
	case away > home:
		return Outcome{Winner: m.AwayTeamID, Loser: m.HomeTeamID}
	}
	if tb == nil {
		return unresolvedOutcome
	}
	if tb.HomeAdvances(m.ID) {
		return Outcome{Winner: m.HomeTeamID, Loser: m.AwayTeamID}
	}
	return Outcome{Winner: m.AwayTeamID, Loser: m.HomeTeamID}
}

// Champion returns the winner of the final when it was decided on the
// scoreline. A drawn or unplayed final has no champion yet.
func Champion(knockoutMatches []models.Match) string {
	for i := range knockoutMatches {
		if knockoutMatches[i].Stage == models.StageFinal {
			return ResolveOutcome(&knockoutMatches[i], nil).Winner
		}
	}
	return models.UnresolvedTeamID
}
