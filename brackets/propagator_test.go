package brackets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/fixtures"
	"github.com/Dosada05/worldcup-simulator/models"
)

const tbd = models.UnresolvedTeamID

func intPtr(v int) *int { return &v }

func newSeed(t *testing.T) *fixtures.Seed {
	t.Helper()
	seed, err := fixtures.Build(context.Background(), brackets.WorldCupTopology)
	require.NoError(t, err)
	return seed
}

func newPropagator(tb brackets.TieBreaker) *brackets.Propagator {
	calc := brackets.NewStandingsCalculator(fixtures.Groups(), fixtures.Teams())
	return brackets.NewPropagator(brackets.WorldCupTopology, calc, tb)
}

// finishGroups plays every group so that the final table follows the
// roster order: the earlier team wins each meeting 1-0.
func finishGroups(matches []models.Match, groupIDs ...string) {
	rank := make(map[string]int)
	for _, g := range fixtures.Groups() {
		for i, teamID := range g.Teams {
			rank[teamID] = i
		}
	}
	include := make(map[string]bool)
	for _, id := range groupIDs {
		include[id] = true
	}
	for i := range matches {
		m := &matches[i]
		if len(include) > 0 && !include[m.GroupID] {
			continue
		}
		if rank[m.HomeTeamID] < rank[m.AwayTeamID] {
			m.HomeScore, m.AwayScore = intPtr(1), intPtr(0)
		} else {
			m.HomeScore, m.AwayScore = intPtr(0), intPtr(1)
		}
	}
}

func find(t *testing.T, matches []models.Match, id string) *models.Match {
	t.Helper()
	for i := range matches {
		if matches[i].ID == id {
			return &matches[i]
		}
	}
	t.Fatalf("match %s not found", id)
	return nil
}

func setScore(t *testing.T, matches []models.Match, id string, home, away int) {
	t.Helper()
	m := find(t, matches, id)
	m.HomeScore, m.AwayScore = intPtr(home), intPtr(away)
}

func TestPropagate_NoResultsKeepsEverySlotUnresolved(t *testing.T) {
	seed := newSeed(t)
	result := newPropagator(brackets.HomeAlwaysAdvances).Propagate(seed.GroupMatches, seed.KnockoutMatches)

	require.Len(t, result, fixtures.KnockoutMatchCount)
	for _, m := range result {
		assert.Equal(t, tbd, m.HomeTeamID, m.ID)
		assert.Equal(t, tbd, m.AwayTeamID, m.ID)
	}
}

func TestPropagate_SeedsRoundOf16FromGroups(t *testing.T) {
	seed := newSeed(t)
	finishGroups(seed.GroupMatches)

	result := newPropagator(brackets.HomeAlwaysAdvances).Propagate(seed.GroupMatches, seed.KnockoutMatches)

	want := map[string][2]string{
		"R16-1": {"mex", "eng"},
		"R16-2": {"arg", "aus"},
		"R16-3": {"esp", "bel"},
		"R16-4": {"bra", "gha"},
		"R16-5": {"usa", "ecu"},
		"R16-6": {"fra", "ksa"},
		"R16-7": {"can", "crc"},
		"R16-8": {"por", "srb"},
	}
	for id, teams := range want {
		m := find(t, result, id)
		assert.Equal(t, teams[0], m.HomeTeamID, id)
		assert.Equal(t, teams[1], m.AwayTeamID, id)
	}
	assert.Equal(t, tbd, find(t, result, "QF-1").HomeTeamID)
}

func TestPropagate_PartialGroupSeedsOnlyPlayedRows(t *testing.T) {
	seed := newSeed(t)
	// Only A1 (mex-ned) is played: mex leads, ecu has no match yet.
	setScore(t, seed.GroupMatches, "A1", 2, 0)

	result := newPropagator(brackets.HomeAlwaysAdvances).Propagate(seed.GroupMatches, seed.KnockoutMatches)

	assert.Equal(t, "mex", find(t, result, "R16-1").HomeTeamID)
	// Second place in A belongs to a team without a played match.
	assert.Equal(t, tbd, find(t, result, "R16-5").AwayTeamID)
	assert.Equal(t, tbd, find(t, result, "R16-1").AwayTeamID)
}

func TestPropagate_RoundOf16WinnerMovesIntoQuarterfinal(t *testing.T) {
	seed := newSeed(t)
	finishGroups(seed.GroupMatches)
	p := newPropagator(brackets.HomeAlwaysAdvances)

	before := p.Propagate(seed.GroupMatches, seed.KnockoutMatches)
	setScore(t, before, "R16-1", 2, 1)
	after := p.Propagate(seed.GroupMatches, before)

	assert.Equal(t, "mex", find(t, after, "QF-1").HomeTeamID)
	assert.Equal(t, tbd, find(t, after, "QF-1").AwayTeamID)
	for _, id := range []string{"QF-2", "QF-3", "QF-4"} {
		qf := find(t, after, id)
		assert.Equal(t, tbd, qf.HomeTeamID, id)
		assert.Equal(t, tbd, qf.AwayTeamID, id)
	}

	setScore(t, after, "R16-1", 0, 3)
	again := p.Propagate(seed.GroupMatches, after)
	assert.Equal(t, "eng", find(t, again, "QF-1").HomeTeamID)
}

func TestPropagate_PreservesScoresAndInputs(t *testing.T) {
	seed := newSeed(t)
	finishGroups(seed.GroupMatches)
	p := newPropagator(brackets.HomeAlwaysAdvances)

	knockout := p.Propagate(seed.GroupMatches, seed.KnockoutMatches)
	setScore(t, knockout, "R16-3", 4, 2)
	snapshot := models.CloneMatches(knockout)
	groupSnapshot := models.CloneMatches(seed.GroupMatches)

	result := p.Propagate(seed.GroupMatches, knockout)

	assert.Equal(t, snapshot, knockout, "knockout input must not change")
	assert.Equal(t, groupSnapshot, seed.GroupMatches, "group input must not change")
	r16 := find(t, result, "R16-3")
	require.NotNil(t, r16.HomeScore)
	assert.Equal(t, 4, *r16.HomeScore)
	assert.Equal(t, 2, *r16.AwayScore)

	// Scores survive even when the teams in the slot change.
	setScore(t, seed.GroupMatches, "E1", 0, 5)
	result = p.Propagate(seed.GroupMatches, result)
	assert.Equal(t, 4, *find(t, result, "R16-3").HomeScore)
}

func TestPropagate_Deterministic(t *testing.T) {
	seed := newSeed(t)
	finishGroups(seed.GroupMatches)
	p := newPropagator(brackets.AwayAlwaysAdvances)

	knockout := p.Propagate(seed.GroupMatches, seed.KnockoutMatches)
	for _, m := range knockout {
		if m.Stage == models.StageRoundOf16 {
			setScore(t, knockout, m.ID, 1, 0)
		}
	}
	first := p.Propagate(seed.GroupMatches, knockout)
	second := p.Propagate(seed.GroupMatches, knockout)
	assert.Equal(t, first, second)
}

// playKnockoutDrawn resolves the bracket round by round with every match drawn.
func playKnockoutDrawn(t *testing.T, p *brackets.Propagator, groups, knockout []models.Match) []models.Match {
	t.Helper()
	result := p.Propagate(groups, knockout)
	for _, stage := range models.KnockoutStages {
		for i := range result {
			if result[i].Stage == stage {
				result[i].HomeScore, result[i].AwayScore = intPtr(1), intPtr(1)
			}
		}
		result = p.Propagate(groups, result)
	}
	return result
}

func TestPropagate_DrawUsesTieBreaker(t *testing.T) {
	tests := []struct {
		name       string
		tieBreaker brackets.TieBreaker
		qfHome     string
	}{
		{name: "home advances", tieBreaker: brackets.HomeAlwaysAdvances, qfHome: "mex"},
		{name: "away advances", tieBreaker: brackets.AwayAlwaysAdvances, qfHome: "eng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := newSeed(t)
			finishGroups(seed.GroupMatches)
			p := newPropagator(tt.tieBreaker)

			knockout := p.Propagate(seed.GroupMatches, seed.KnockoutMatches)
			setScore(t, knockout, "R16-1", 2, 2)
			result := p.Propagate(seed.GroupMatches, knockout)

			assert.Equal(t, tt.qfHome, find(t, result, "QF-1").HomeTeamID)
		})
	}
}

func TestPropagate_ThirdPlaceAndFinalAreComplementary(t *testing.T) {
	for seedValue := int64(1); seedValue <= 25; seedValue++ {
		seed := newSeed(t)
		finishGroups(seed.GroupMatches)
		p := newPropagator(brackets.NewRandomTieBreaker(seedValue))

		result := playKnockoutDrawn(t, p, seed.GroupMatches, seed.KnockoutMatches)

		sf1, sf2 := find(t, result, "SF-1"), find(t, result, "SF-2")
		final, third := find(t, result, "F"), find(t, result, "TP")

		assert.ElementsMatch(t,
			[]string{sf1.HomeTeamID, sf1.AwayTeamID},
			[]string{final.HomeTeamID, third.HomeTeamID},
			"seed %d", seedValue)
		assert.ElementsMatch(t,
			[]string{sf2.HomeTeamID, sf2.AwayTeamID},
			[]string{final.AwayTeamID, third.AwayTeamID},
			"seed %d", seedValue)
	}
}

func TestPropagate_DrawDecidedOncePerPass(t *testing.T) {
	seed := newSeed(t)
	finishGroups(seed.GroupMatches)

	calls := make(map[string]int)
	counting := brackets.TieBreakerFunc(func(matchID string) bool {
		calls[matchID]++
		return true
	})
	p := newPropagator(counting)

	result := playKnockoutDrawn(t, p, seed.GroupMatches, seed.KnockoutMatches)
	clear(calls)
	p.Propagate(seed.GroupMatches, result)

	require.NotEmpty(t, calls)
	for id, n := range calls {
		assert.Equal(t, 1, n, id)
	}
}

func TestResolveOutcome(t *testing.T) {
	tests := []struct {
		name  string
		match *models.Match
		tb    brackets.TieBreaker
		want  brackets.Outcome
	}{
		{
			name:  "nil match",
			match: nil,
			want:  brackets.Outcome{Winner: tbd, Loser: tbd},
		},
		{
			name:  "unplayed",
			match: &models.Match{ID: "F", HomeTeamID: "bra", AwayTeamID: "arg"},
			want:  brackets.Outcome{Winner: tbd, Loser: tbd},
		},
		{
			name:  "home win",
			match: &models.Match{ID: "F", HomeTeamID: "bra", AwayTeamID: "arg", HomeScore: intPtr(2), AwayScore: intPtr(0)},
			want:  brackets.Outcome{Winner: "bra", Loser: "arg"},
		},
		{
			name:  "away win",
			match: &models.Match{ID: "F", HomeTeamID: "bra", AwayTeamID: "arg", HomeScore: intPtr(1), AwayScore: intPtr(3)},
			want:  brackets.Outcome{Winner: "arg", Loser: "bra"},
		},
		{
			name:  "draw without tie breaker",
			match: &models.Match{ID: "F", HomeTeamID: "bra", AwayTeamID: "arg", HomeScore: intPtr(1), AwayScore: intPtr(1)},
			want:  brackets.Outcome{Winner: tbd, Loser: tbd},
		},
		{
			name:  "draw away advances",
			match: &models.Match{ID: "F", HomeTeamID: "bra", AwayTeamID: "arg", HomeScore: intPtr(1), AwayScore: intPtr(1)},
			tb:    brackets.AwayAlwaysAdvances,
			want:  brackets.Outcome{Winner: "arg", Loser: "bra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, brackets.ResolveOutcome(tt.match, tt.tb))
		})
	}
}

func TestChampion(t *testing.T) {
	final := models.Match{ID: "F", Stage: models.StageFinal, HomeTeamID: "fra", AwayTeamID: "arg"}
	matches := []models.Match{{ID: "TP", Stage: models.StageThirdPlace}, final}

	assert.Equal(t, tbd, brackets.Champion(matches))

	matches[1].HomeScore, matches[1].AwayScore = intPtr(3), intPtr(3)
	assert.Equal(t, tbd, brackets.Champion(matches), "a drawn final has no champion")

	matches[1].AwayScore = intPtr(4)
	assert.Equal(t, "arg", brackets.Champion(matches))

	assert.Equal(t, tbd, brackets.Champion(nil))
}

func TestRandomTieBreaker_SeedIsReproducible(t *testing.T) {
	a := brackets.NewRandomTieBreaker(42)
	b := brackets.NewRandomTieBreaker(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.HomeAdvances("F"), b.HomeAdvances("F"))
	}
}
