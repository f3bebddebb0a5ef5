package brackets

import (
	"fmt"

	"github.com/Dosada05/worldcup-simulator/models"
)

type SourceKind int

const (
	SourceGroupRank SourceKind = iota
	SourceMatchWinner
	SourceMatchLoser
)

// SlotSource describes where a knockout slot takes its team from.
type SlotSource struct {
	Kind    SourceKind
	GroupID string
	Rank    int // 0 = group winner, 1 = runner-up
	MatchID string
}

func GroupRank(groupID string, rank int) SlotSource {
	return SlotSource{Kind: SourceGroupRank, GroupID: groupID, Rank: rank}
}

func WinnerOf(matchID string) SlotSource {
	return SlotSource{Kind: SourceMatchWinner, MatchID: matchID}
}

func LoserOf(matchID string) SlotSource {
	return SlotSource{Kind: SourceMatchLoser, MatchID: matchID}
}

func (s SlotSource) String() string {
	switch s.Kind {
	case SourceGroupRank:
		return fmt.Sprintf("%d%s", s.Rank+1, s.GroupID)
	case SourceMatchWinner:
		return "W(" + s.MatchID + ")"
	case SourceMatchLoser:
		return "L(" + s.MatchID + ")"
	}
	return "?"
}

type SlotRule struct {
	MatchID string
	Stage   models.Stage
	Home    SlotSource
	Away    SlotSource
}

// Topology is an ordered list of slot rules. A rule may only depend on
// matches whose rules appear earlier in the list.
type Topology []SlotRule

// WorldCupTopology is the 8-group bracket: cross-group round of 16, then
// straight halves down to the final, with the semifinal losers meeting
// for third place.
var WorldCupTopology = Topology{
	{MatchID: "R16-1", Stage: models.StageRoundOf16, Home: GroupRank("A", 0), Away: GroupRank("B", 1)},
	{MatchID: "R16-2", Stage: models.StageRoundOf16, Home: GroupRank("C", 0), Away: GroupRank("D", 1)},
	{MatchID: "R16-3", Stage: models.StageRoundOf16, Home: GroupRank("E", 0), Away: GroupRank("F", 1)},
	{MatchID: "R16-4", Stage: models.StageRoundOf16, Home: GroupRank("G", 0), Away: GroupRank("H", 1)},
	{MatchID: "R16-5", Stage: models.StageRoundOf16, Home: GroupRank("B", 0), Away: GroupRank("A", 1)},
	{MatchID: "R16-6", Stage: models.StageRoundOf16, Home: GroupRank("D", 0), Away: GroupRank("C", 1)},
	{MatchID: "R16-7", Stage: models.StageRoundOf16, Home: GroupRank("F", 0), Away: GroupRank("E", 1)},
	{MatchID: "R16-8", Stage: models.StageRoundOf16, Home: GroupRank("H", 0), Away: GroupRank("G", 1)},

	{MatchID: "QF-1", Stage: models.StageQuarterfinal, Home: WinnerOf("R16-1"), Away: WinnerOf("R16-2")},
	{MatchID: "QF-2", Stage: models.StageQuarterfinal, Home: WinnerOf("R16-3"), Away: WinnerOf("R16-4")},
	{MatchID: "QF-3", Stage: models.StageQuarterfinal, Home: WinnerOf("R16-5"), Away: WinnerOf("R16-6")},
	{MatchID: "QF-4", Stage: models.StageQuarterfinal, Home: WinnerOf("R16-7"), Away: WinnerOf("R16-8")},

	{MatchID: "SF-1", Stage: models.StageSemifinal, Home: WinnerOf("QF-1"), Away: WinnerOf("QF-2")},
	{MatchID: "SF-2", Stage: models.StageSemifinal, Home: WinnerOf("QF-3"), Away: WinnerOf("QF-4")},

	{MatchID: "TP", Stage: models.StageThirdPlace, Home: LoserOf("SF-1"), Away: LoserOf("SF-2")},
	{MatchID: "F", Stage: models.StageFinal, Home: WinnerOf("SF-1"), Away: WinnerOf("SF-2")},
}

// Validate checks that match IDs are unique, every stage is a knockout
// stage and every match dependency points at an earlier rule.
func (t Topology) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("topology has no rules")
	}
	seen := make(map[string]bool, len(t))
	for i, rule := range t {
		if rule.MatchID == "" {
			return fmt.Errorf("rule %d: empty match id", i)
		}
		if seen[rule.MatchID] {
			return fmt.Errorf("rule %d: duplicate match id %q", i, rule.MatchID)
		}
		if !rule.Stage.IsKnockout() {
			return fmt.Errorf("rule %s: stage %q is not a knockout stage", rule.MatchID, rule.Stage)
		}
		for _, src := range []SlotSource{rule.Home, rule.Away} {
			switch src.Kind {
			case SourceGroupRank:
				if src.GroupID == "" || src.Rank < 0 {
					return fmt.Errorf("rule %s: invalid group source %s", rule.MatchID, src)
				}
			case SourceMatchWinner, SourceMatchLoser:
				if !seen[src.MatchID] {
					return fmt.Errorf("rule %s: source %s does not refer to an earlier match", rule.MatchID, src)
				}
			default:
				return fmt.Errorf("rule %s: unknown source kind %d", rule.MatchID, src.Kind)
			}
		}
		seen[rule.MatchID] = true
	}
	return nil
}

func (t Topology) Rule(matchID string) (SlotRule, bool) {
	for _, rule := range t {
		if rule.MatchID == matchID {
			return rule, true
		}
	}
	return SlotRule{}, false
}
