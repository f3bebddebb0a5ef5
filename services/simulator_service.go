package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/fixtures"
	"github.com/Dosada05/worldcup-simulator/models"
	"github.com/Dosada05/worldcup-simulator/repositories"
	"github.com/Dosada05/worldcup-simulator/storage"
)

// Типы сообщений, рассылаемых в комнату сессии.
const (
	MessageStateSnapshot  = "STATE_SNAPSHOT"
	MessageStateUpdated   = "STATE_UPDATED"
	MessageStateReset     = "STATE_RESET"
	MessageSessionExpired = "SESSION_EXPIRED"
)

// Broadcaster pushes session events to connected clients.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
	CloseRoom(roomID string)
}

type SessionInfo struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Snapshot  *Snapshot `json:"state"`
}

type SessionOptions struct {
	TTL         time.Duration
	MaxSessions int
	Now         func() time.Time
}

type SimulatorService interface {
	CreateSession(ctx context.Context) (*SessionInfo, error)
	GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error)
	UpdateGroupMatch(ctx context.Context, sessionID, matchID string, input UpdateScoreInput) (*Snapshot, error)
	UpdateKnockoutMatch(ctx context.Context, sessionID, matchID string, input UpdateScoreInput) (*Snapshot, error)
	GroupStandings(ctx context.Context, sessionID, groupID string) ([]models.TeamStanding, error)
	GroupMatches(ctx context.Context, sessionID, groupID string) ([]models.Match, error)
	KnockoutMatches(ctx context.Context, sessionID string, stage models.Stage) ([]models.Match, error)
	Reset(ctx context.Context, sessionID string) (*Snapshot, error)
	ExportSnapshot(ctx context.Context, sessionID string) (*storage.UploadResult, error)
	ScoreHistory(ctx context.Context, sessionID string) ([]*models.ScoreEdit, error)
	ExpireIdle(ctx context.Context) int
	SessionExists(sessionID string) bool
}

type session struct {
	store     *TournamentStore
	createdAt time.Time
	lastSeen  time.Time
}

type simulatorService struct {
	mu       sync.Mutex
	sessions map[string]*session

	seed        *fixtures.Seed
	propagator  *brackets.Propagator
	standings   *brackets.StandingsCalculator
	editRepo    repositories.ScoreEditRepository
	uploader    storage.FileUploader // nil: экспорт выключен
	broadcaster Broadcaster
	opts        SessionOptions
	logger      *slog.Logger
}

func NewSimulatorService(
	seed *fixtures.Seed,
	propagator *brackets.Propagator,
	standings *brackets.StandingsCalculator,
	editRepo repositories.ScoreEditRepository,
	uploader storage.FileUploader,
	broadcaster Broadcaster,
	opts SessionOptions,
	logger *slog.Logger,
) SimulatorService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if editRepo == nil {
		editRepo = repositories.NewNopScoreEditRepository()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &simulatorService{
		sessions:    make(map[string]*session),
		seed:        seed,
		propagator:  propagator,
		standings:   standings,
		editRepo:    editRepo,
		uploader:    uploader,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger,
	}
}

func (s *simulatorService) CreateSession(ctx context.Context) (*SessionInfo, error) {
	now := s.opts.Now()
	id := uuid.NewString()
	store := NewTournamentStore(s.seed, s.propagator, s.standings, s.logger.With(slog.String("session_id", id)))

	s.mu.Lock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit is %d", ErrSessionLimitReached, s.opts.MaxSessions)
	}
	s.sessions[id] = &session{store: store, createdAt: now, lastSeen: now}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "simulation session created", slog.String("session_id", id))
	return &SessionInfo{SessionID: id, CreatedAt: now, Snapshot: store.Snapshot()}, nil
}

// lookup returns the session store and refreshes its idle timer.
func (s *simulatorService) lookup(sessionID string) (*TournamentStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.lastSeen = s.opts.Now()
	return sess.store, nil
}

func (s *simulatorService) SessionExists(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

func (s *simulatorService) GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

func (s *simulatorService) UpdateGroupMatch(ctx context.Context, sessionID, matchID string, input UpdateScoreInput) (*Snapshot, error) {
	return s.updateMatch(ctx, sessionID, matchID, models.StageGroup, input)
}

func (s *simulatorService) UpdateKnockoutMatch(ctx context.Context, sessionID, matchID string, input UpdateScoreInput) (*Snapshot, error) {
	return s.updateMatch(ctx, sessionID, matchID, "", input)
}

// updateMatch validates at the boundary, applies the edit to the store,
// then journals and broadcasts it. An unknown match ID is not an error:
// the unchanged snapshot is returned.
func (s *simulatorService) updateMatch(ctx context.Context, sessionID, matchID string, stage models.Stage, input UpdateScoreInput) (*Snapshot, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	home, away := input.HomeScore.Value, input.AwayScore.Value
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	var applied bool
	if stage == models.StageGroup {
		applied = store.UpdateGroupMatch(matchID, home, away)
	} else {
		applied = store.UpdateKnockoutMatch(matchID, home, away)
	}
	snapshot := store.Snapshot()
	if !applied {
		s.logger.DebugContext(ctx, "score edit ignored: unknown match", slog.String("session_id", sessionID), slog.String("match_id", matchID))
		return snapshot, nil
	}

	if stage == "" {
		if m, ok := store.FindMatch(matchID); ok {
			stage = m.Stage
		}
	}
	edit := &models.ScoreEdit{
		SessionID: sessionID,
		MatchID:   matchID,
		Stage:     stage,
		HomeScore: home,
		AwayScore: away,
		CreatedAt: s.opts.Now().UTC(),
	}
	if err := s.editRepo.Create(ctx, nil, edit); err != nil {
		s.logger.WarnContext(ctx, "failed to record score edit", slog.String("session_id", sessionID), slog.String("match_id", matchID), slog.Any("error", err))
	}

	s.broadcast(sessionID, MessageStateUpdated, snapshot)
	return snapshot, nil
}

func (s *simulatorService) GroupStandings(ctx context.Context, sessionID, groupID string) ([]models.TeamStanding, error) {
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.standings.HasGroup(groupID) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return store.GetGroupStandings(groupID), nil
}

func (s *simulatorService) GroupMatches(ctx context.Context, sessionID, groupID string) ([]models.Match, error) {
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.standings.HasGroup(groupID) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	all := store.GroupMatches()
	result := make([]models.Match, 0, 6)
	for _, m := range all {
		if m.GroupID == groupID {
			result = append(result, m)
		}
	}
	return result, nil
}

// KnockoutMatches returns the bracket, optionally limited to one stage.
func (s *simulatorService) KnockoutMatches(ctx context.Context, sessionID string, stage models.Stage) ([]models.Match, error) {
	if stage != "" && !stage.IsKnockout() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	all := store.KnockoutMatches()
	if stage == "" {
		return all, nil
	}
	result := make([]models.Match, 0, len(all))
	for _, m := range all {
		if m.Stage == stage {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *simulatorService) Reset(ctx context.Context, sessionID string) (*Snapshot, error) {
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	store.ResetAll()
	snapshot := store.Snapshot()
	s.logger.InfoContext(ctx, "simulation session reset", slog.String("session_id", sessionID))
	s.broadcast(sessionID, MessageStateReset, snapshot)
	return snapshot, nil
}

type exportDocument struct {
	SessionID  string         `json:"session_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Teams      []models.Team  `json:"teams"`
	Groups     []groupExport  `json:"groups"`
	Knockout   []models.Match `json:"knockout_matches"`
	Pending    []string       `json:"pending_knockout_matches"`
	Champion   string         `json:"champion"`
	Version    int64          `json:"version"`
}

type groupExport struct {
	models.Group
	Matches   []models.Match        `json:"matches"`
	Standings []models.TeamStanding `json:"standings"`
}

// ExportSnapshot uploads the current bracket as a JSON document and returns
// where it can be fetched.
func (s *simulatorService) ExportSnapshot(ctx context.Context, sessionID string) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}
	store, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := store.Snapshot()
	now := s.opts.Now().UTC()
	doc := exportDocument{
		SessionID:  sessionID,
		ExportedAt: now,
		Teams:      fixtures.TeamList(),
		Knockout:   snapshot.KnockoutMatches,
		Pending:    []string{},
		Champion:   snapshot.Champion,
		Version:    snapshot.Version,
	}
	for i := range snapshot.KnockoutMatches {
		if m := &snapshot.KnockoutMatches[i]; !m.IsResolved() {
			doc.Pending = append(doc.Pending, m.ID)
		}
	}
	for _, g := range fixtures.Groups() {
		ge := groupExport{Group: g, Standings: s.standings.Calculate(g.ID, snapshot.GroupMatches)}
		for _, m := range snapshot.GroupMatches {
			if m.GroupID == g.ID {
				ge.Matches = append(ge.Matches, m)
			}
		}
		doc.Groups = append(doc.Groups, ge)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %w", ErrExportFailed, err)
	}
	key := storage.SnapshotKey(sessionID, snapshot.Version, now)
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	s.logger.InfoContext(ctx, "snapshot exported", slog.String("session_id", sessionID), slog.String("key", result.Key))
	return result, nil
}

// ScoreHistory returns the journal of applied edits, oldest first.
func (s *simulatorService) ScoreHistory(ctx context.Context, sessionID string) ([]*models.ScoreEdit, error) {
	if _, err := s.lookup(sessionID); err != nil {
		return nil, err
	}
	edits, err := s.editRepo.ListBySession(ctx, nil, sessionID)
	switch {
	case errors.Is(err, repositories.ErrScoreEditsNotFound):
		return []*models.ScoreEdit{}, nil
	case errors.Is(err, repositories.ErrAuditLogDisabled):
		return nil, ErrHistoryDisabled
	case err != nil:
		return nil, fmt.Errorf("failed to load score history for session %s: %w", sessionID, err)
	}
	return edits, nil
}

// ExpireIdle drops sessions idle for longer than the TTL and returns how
// many were removed.
func (s *simulatorService) ExpireIdle(ctx context.Context) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	cutoff := s.opts.Now().Add(-s.opts.TTL)

	s.mu.Lock()
	expired := make([]string, 0)
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}
	if err := s.editRepo.DeleteBySessions(ctx, nil, expired); err != nil {
		s.logger.WarnContext(ctx, "failed to purge score edits of expired sessions", slog.Any("error", err))
	}
	for _, id := range expired {
		s.broadcast(id, MessageSessionExpired, nil)
		if s.broadcaster != nil {
			s.broadcaster.CloseRoom(id)
		}
	}
	s.logger.InfoContext(ctx, "expired idle sessions", slog.Int("count", len(expired)))
	return len(expired)
}

func (s *simulatorService) broadcast(sessionID, messageType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(sessionID, brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  sessionID,
	})
}
