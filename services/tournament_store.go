package services

import (
	"log/slog"
	"sync"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/fixtures"
	"github.com/Dosada05/worldcup-simulator/models"
)

// Snapshot is a consistent, deep-copied view of one tournament state.
type Snapshot struct {
	Version         int64          `json:"version"`
	GroupMatches    []models.Match `json:"group_matches"`
	KnockoutMatches []models.Match `json:"knockout_matches"`
	Champion        string         `json:"champion"`
}

// TournamentStore owns the two match collections of one simulation. Both
// collections are replaced together under the write lock, so readers see
// either the old or the new state, never a mix.
type TournamentStore struct {
	mu              sync.RWMutex
	seed            *fixtures.Seed
	propagator      *brackets.Propagator
	standings       *brackets.StandingsCalculator
	groupMatches    []models.Match
	knockoutMatches []models.Match
	version         int64
	logger          *slog.Logger
}

func NewTournamentStore(seed *fixtures.Seed, propagator *brackets.Propagator, standings *brackets.StandingsCalculator, logger *slog.Logger) *TournamentStore {
	if logger == nil {
		logger = slog.Default()
	}
	initial := seed.Clone()
	return &TournamentStore{
		seed:            seed.Clone(),
		propagator:      propagator,
		standings:       standings,
		groupMatches:    initial.GroupMatches,
		knockoutMatches: initial.KnockoutMatches,
		logger:          logger,
	}
}

// UpdateGroupMatch replaces the score pair of a group match and re-runs
// propagation. Unknown IDs and out-of-range scores leave the state as is;
// the result reports whether anything was applied.
func (s *TournamentStore) UpdateGroupMatch(matchID string, homeScore, awayScore *int) bool {
	if !ValidScore(homeScore) || !ValidScore(awayScore) {
		s.logger.Debug("group score edit dropped: score out of range", slog.String("match_id", matchID))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groupMatches, matchID)
	if i < 0 {
		return false
	}
	groupMatches := models.CloneMatches(s.groupMatches)
	setScores(&groupMatches[i], homeScore, awayScore)

	s.knockoutMatches = s.propagator.Propagate(groupMatches, s.knockoutMatches)
	s.groupMatches = groupMatches
	s.version++
	return true
}

// UpdateKnockoutMatch replaces the score pair of a knockout match and
// re-runs propagation so later rounds follow the new result.
func (s *TournamentStore) UpdateKnockoutMatch(matchID string, homeScore, awayScore *int) bool {
	if !ValidScore(homeScore) || !ValidScore(awayScore) {
		s.logger.Debug("knockout score edit dropped: score out of range", slog.String("match_id", matchID))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.knockoutMatches, matchID)
	if i < 0 {
		return false
	}
	knockout := models.CloneMatches(s.knockoutMatches)
	setScores(&knockout[i], homeScore, awayScore)

	s.knockoutMatches = s.propagator.Propagate(s.groupMatches, knockout)
	s.version++
	return true
}

// GetGroupStandings is computed on every call.
func (s *TournamentStore) GetGroupStandings(groupID string) []models.TeamStanding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.standings.Calculate(groupID, s.groupMatches)
}

// ResetAll restores the seed: no scores, every knockout slot unresolved.
func (s *TournamentStore) ResetAll() {
	fresh := s.seed.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupMatches = fresh.GroupMatches
	s.knockoutMatches = fresh.KnockoutMatches
	s.version++
}

func (s *TournamentStore) GroupMatches() []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneMatches(s.groupMatches)
}

func (s *TournamentStore) KnockoutMatches() []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneMatches(s.knockoutMatches)
}

func (s *TournamentStore) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{
		Version:         s.version,
		GroupMatches:    models.CloneMatches(s.groupMatches),
		KnockoutMatches: models.CloneMatches(s.knockoutMatches),
		Champion:        brackets.Champion(s.knockoutMatches),
	}
}

func (s *TournamentStore) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// FindMatch looks the ID up in both collections.
func (s *TournamentStore) FindMatch(matchID string) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.groupMatches, matchID); i >= 0 {
		return s.groupMatches[i].Clone(), true
	}
	if i := indexOf(s.knockoutMatches, matchID); i >= 0 {
		return s.knockoutMatches[i].Clone(), true
	}
	return models.Match{}, false
}

func indexOf(matches []models.Match, matchID string) int {
	for i := range matches {
		if matches[i].ID == matchID {
			return i
		}
	}
	return -1
}

func setScores(m *models.Match, homeScore, awayScore *int) {
	m.HomeScore = copyScore(homeScore)
	m.AwayScore = copyScore(awayScore)
}

func copyScore(s *int) *int {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
