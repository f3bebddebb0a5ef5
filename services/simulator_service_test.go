package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/models"
	"github.com/Dosada05/worldcup-simulator/repositories"
	"github.com/Dosada05/worldcup-simulator/storage"
)

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages map[string][]brackets.WebSocketMessage
	closed   []string
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{messages: make(map[string][]brackets.WebSocketMessage)}
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[roomID] = append(b.messages[roomID], message.(brackets.WebSocketMessage))
}

func (b *fakeBroadcaster) CloseRoom(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, roomID)
}

func (b *fakeBroadcaster) types(roomID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]string, 0, len(b.messages[roomID]))
	for _, m := range b.messages[roomID] {
		result = append(result, m.Type)
	}
	return result
}

type fakeEditRepo struct {
	mu        sync.Mutex
	edits     []*models.ScoreEdit
	deleted   []string
	createErr error
}

func (r *fakeEditRepo) Create(_ context.Context, _ repositories.SQLExecutor, edit *models.ScoreEdit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	edit.ID = int64(len(r.edits) + 1)
	r.edits = append(r.edits, edit)
	return nil
}

func (r *fakeEditRepo) ListBySession(_ context.Context, _ repositories.SQLExecutor, sessionID string) ([]*models.ScoreEdit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.ScoreEdit
	for _, e := range r.edits {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	if len(result) == 0 {
		return nil, repositories.ErrScoreEditsNotFound
	}
	return result, nil
}

func (r *fakeEditRepo) DeleteBySessions(_ context.Context, _ repositories.SQLExecutor, sessionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, sessionIDs...)
	return nil
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *fakeUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(context.Context, string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type serviceFixture struct {
	svc         SimulatorService
	broadcaster *fakeBroadcaster
	repo        *fakeEditRepo
	uploader    *fakeUploader
	clock       *fakeClock
}

func newServiceFixture(t *testing.T, opts SessionOptions, withUploader bool) serviceFixture {
	t.Helper()
	c := newCore(t)
	f := serviceFixture{
		broadcaster: newFakeBroadcaster(),
		repo:        &fakeEditRepo{},
		clock:       &fakeClock{now: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)},
	}
	opts.Now = f.clock.Now
	var uploader storage.FileUploader
	if withUploader {
		f.uploader = &fakeUploader{}
		uploader = f.uploader
	}
	f.svc = NewSimulatorService(c.seed, c.propagator, c.standings, f.repo, uploader, f.broadcaster, opts, nil)
	return f
}

func scoreInput(home, away *int) UpdateScoreInput {
	return UpdateScoreInput{HomeScore: ScoreInput{Value: home, Present: true}, AwayScore: ScoreInput{Value: away, Present: true}}
}

func TestSimulatorService_CreateSession(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()

	a, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	b, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.True(t, f.svc.SessionExists(a.SessionID))
	assert.Equal(t, f.clock.Now(), a.CreatedAt)
	assert.Equal(t, models.UnresolvedTeamID, a.Snapshot.Champion)

	_, err = f.svc.GetSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSimulatorService_SessionLimit(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{MaxSessions: 1}, false)

	_, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	_, err = f.svc.CreateSession(context.Background())
	assert.ErrorIs(t, err, ErrSessionLimitReached)
}

func TestSimulatorService_SessionsAreIndependent(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	a, _ := f.svc.CreateSession(ctx)
	b, _ := f.svc.CreateSession(ctx)

	_, err := f.svc.UpdateGroupMatch(ctx, a.SessionID, "A1", scoreInput(intPtr(2), intPtr(0)))
	require.NoError(t, err)

	snapA, _ := f.svc.GetSnapshot(ctx, a.SessionID)
	snapB, _ := f.svc.GetSnapshot(ctx, b.SessionID)
	assert.Equal(t, int64(1), snapA.Version)
	assert.Equal(t, int64(0), snapB.Version)
}

func TestSimulatorService_UpdateGroupMatch(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	snap, err := f.svc.UpdateGroupMatch(ctx, info.SessionID, "A1", scoreInput(intPtr(2), intPtr(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)

	require.Len(t, f.repo.edits, 1)
	edit := f.repo.edits[0]
	assert.Equal(t, info.SessionID, edit.SessionID)
	assert.Equal(t, "A1", edit.MatchID)
	assert.Equal(t, models.StageGroup, edit.Stage)
	assert.Equal(t, 2, *edit.HomeScore)
	assert.Equal(t, []string{MessageStateUpdated}, f.broadcaster.types(info.SessionID))

	standings, err := f.svc.GroupStandings(ctx, info.SessionID, "A")
	require.NoError(t, err)
	assert.Equal(t, "mex", standings[0].TeamID)
}

func TestSimulatorService_UpdateErrors(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	_, err := f.svc.UpdateGroupMatch(ctx, info.SessionID, "A1", scoreInput(intPtr(100), nil))
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = f.svc.UpdateKnockoutMatch(ctx, "missing", "F", scoreInput(intPtr(1), intPtr(0)))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	partial := UpdateScoreInput{HomeScore: ScoreInput{Value: intPtr(2), Present: true}}
	_, err = f.svc.UpdateGroupMatch(ctx, info.SessionID, "A1", partial)
	assert.ErrorIs(t, err, ErrValidationFailed)

	// Unknown match IDs leave the state untouched without failing.
	snap, err := f.svc.UpdateKnockoutMatch(ctx, info.SessionID, "QF-9", scoreInput(intPtr(1), intPtr(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)

	assert.Empty(t, f.repo.edits)
	assert.Empty(t, f.broadcaster.types(info.SessionID))
}

func TestSimulatorService_JournalFailureDoesNotFailEdit(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	f.repo.createErr = errors.New("connection refused")
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	snap, err := f.svc.UpdateKnockoutMatch(ctx, info.SessionID, "F", scoreInput(intPtr(1), intPtr(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
}

func TestSimulatorService_KnockoutStageFilter(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	all, err := f.svc.KnockoutMatches(ctx, info.SessionID, "")
	require.NoError(t, err)
	assert.Len(t, all, 16)

	quarters, err := f.svc.KnockoutMatches(ctx, info.SessionID, models.StageQuarterfinal)
	require.NoError(t, err)
	assert.Len(t, quarters, 4)

	_, err = f.svc.KnockoutMatches(ctx, info.SessionID, models.StageGroup)
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestSimulatorService_GroupQueries(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	matches, err := f.svc.GroupMatches(ctx, info.SessionID, "H")
	require.NoError(t, err)
	assert.Len(t, matches, 6)
	for _, m := range matches {
		assert.Equal(t, "H", m.GroupID)
	}

	_, err = f.svc.GroupMatches(ctx, info.SessionID, "Q")
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = f.svc.GroupStandings(ctx, info.SessionID, "Q")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSimulatorService_Reset(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	_, err := f.svc.UpdateGroupMatch(ctx, info.SessionID, "B1", scoreInput(intPtr(1), intPtr(1)))
	require.NoError(t, err)

	snap, err := f.svc.Reset(ctx, info.SessionID)
	require.NoError(t, err)
	for _, m := range snap.GroupMatches {
		assert.False(t, m.HasResult(), m.ID)
	}
	assert.Equal(t, []string{MessageStateUpdated, MessageStateReset}, f.broadcaster.types(info.SessionID))
}

func TestSimulatorService_ExportSnapshot(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, true)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)
	_, err := f.svc.UpdateGroupMatch(ctx, info.SessionID, "A1", scoreInput(intPtr(3), intPtr(0)))
	require.NoError(t, err)

	result, err := f.svc.ExportSnapshot(ctx, info.SessionID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "snapshots/"+info.SessionID+"/v1-"), result.Key)
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.Location)
	assert.Equal(t, "application/json", f.uploader.contentType)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(f.uploader.body, &doc))
	assert.Equal(t, info.SessionID, doc["session_id"])
	assert.Len(t, doc["teams"], 32)
	assert.Len(t, doc["groups"], 8)
	assert.Len(t, doc["knockout_matches"], 16)
	// Сыграна одна группа: ни у одного матча плей-офф нет обоих участников.
	assert.Len(t, doc["pending_knockout_matches"], 16)

	f.uploader.err = errors.New("bucket unavailable")
	_, err = f.svc.ExportSnapshot(ctx, info.SessionID)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestSimulatorService_ExportDisabled(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	info, _ := f.svc.CreateSession(context.Background())

	_, err := f.svc.ExportSnapshot(context.Background(), info.SessionID)
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestSimulatorService_ScoreHistory(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{}, false)
	ctx := context.Background()
	info, _ := f.svc.CreateSession(ctx)

	edits, err := f.svc.ScoreHistory(ctx, info.SessionID)
	require.NoError(t, err)
	assert.Empty(t, edits)

	_, err = f.svc.UpdateGroupMatch(ctx, info.SessionID, "C1", scoreInput(intPtr(0), intPtr(0)))
	require.NoError(t, err)
	_, err = f.svc.UpdateKnockoutMatch(ctx, info.SessionID, "SF-2", scoreInput(intPtr(2), intPtr(3)))
	require.NoError(t, err)

	edits, err = f.svc.ScoreHistory(ctx, info.SessionID)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, "C1", edits[0].MatchID)
	assert.Equal(t, models.StageSemifinal, edits[1].Stage)

	_, err = f.svc.ScoreHistory(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSimulatorService_ScoreHistoryDisabled(t *testing.T) {
	c := newCore(t)
	svc := NewSimulatorService(c.seed, c.propagator, c.standings, nil, nil, nil, SessionOptions{}, nil)
	info, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = svc.ScoreHistory(context.Background(), info.SessionID)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestSimulatorService_ExpireIdle(t *testing.T) {
	f := newServiceFixture(t, SessionOptions{TTL: time.Hour}, false)
	ctx := context.Background()

	idle, _ := f.svc.CreateSession(ctx)
	f.clock.Advance(40 * time.Minute)
	active, _ := f.svc.CreateSession(ctx)
	f.clock.Advance(30 * time.Minute)
	_, err := f.svc.GetSnapshot(ctx, active.SessionID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.svc.ExpireIdle(ctx))
	assert.False(t, f.svc.SessionExists(idle.SessionID))
	assert.True(t, f.svc.SessionExists(active.SessionID))
	assert.Equal(t, []string{MessageSessionExpired}, f.broadcaster.types(idle.SessionID))
	assert.Equal(t, []string{idle.SessionID}, f.broadcaster.closed)
	assert.Equal(t, []string{idle.SessionID}, f.repo.deleted)

	assert.Equal(t, 0, f.svc.ExpireIdle(ctx))
}
