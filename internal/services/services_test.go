package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"

	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/pkg/database"
)

func newTestStore(t *testing.T) *database.RecordingStore {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return database.NewRecordingStore(db)
}

type fakePurger struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func TestRetentionSweep(t *testing.T) {
	p := &fakePurger{n: 3}
	s, err := NewRetentionService(p, "0 0 3 * * *", 30)
	require.NoError(t, err)

	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.AddDate(0, 0, -30), p.cutoff)

	p.err = errors.New("locked")
	_, err = s.Sweep(context.Background())
	assert.Error(t, err)
}

func TestRetentionSchedule(t *testing.T) {
	_, err := NewRetentionService(&fakePurger{}, "not a cron", 30)
	assert.Error(t, err)

	s, err := NewRetentionService(&fakePurger{}, "0 0 3 * * *", 30)
	require.NoError(t, err)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }

	assert.WithinDuration(t, time.Date(2024, 7, 1, 3, 0, 0, 0, time.Local), s.NextRun(), 0)
}

func TestInitRetentionDisabled(t *testing.T) {
	GlobalRetention = nil
	require.NoError(t, InitRetention(&fakePurger{}, "bogus", 0))
	assert.Nil(t, GlobalRetention)
}

type fakeSessions struct {
	live  []string
	dead  []string
	calls int
}

func (f *fakeSessions) ReapDead(context.Context) []string {
	f.calls++
	d := f.dead
	f.dead = nil
	return d
}

func (f *fakeSessions) SessionIDs() []string { return f.live }

func TestReaperClosesOrphans(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	actions := []models.Action{{Type: models.ActionNavigate, URL: "https://a.test/", Timestamp: 1}}
	rec := &models.Recording{SessionID: "orphan", StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, rec.SetActions(actions))
	rec.IsRecording = true
	require.NoError(t, store.CreateRecording(ctx, rec))

	require.NoError(t, store.CreateRecording(ctx, &models.Recording{SessionID: "live", StartedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.SetRecording(ctx, "live", true))

	sessions := &fakeSessions{live: []string{"live"}, dead: []string{"gone"}}
	r := NewReaperService(sessions, store, time.Minute)
	r.grace = 0

	assert.Equal(t, 2, r.RunOnce(ctx))
	assert.Equal(t, 1, sessions.calls)

	got, err := store.LoadRecording(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, got.IsRecording)
	assert.NotNil(t, got.StoppedAt)
	assert.Equal(t, 1, got.ActionCount)

	got, err = store.LoadRecording(ctx, "live")
	require.NoError(t, err)
	assert.True(t, got.IsRecording)

	// nothing left to fix
	assert.Equal(t, 0, r.RunOnce(ctx))
}

func TestReaperGracePeriod(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SetRecording(ctx, "starting", true))

	r := NewReaperService(&fakeSessions{}, store, time.Minute)
	assert.Equal(t, 0, r.RunOnce(ctx))
}

func TestReaperStartStop(t *testing.T) {
	sessions := &fakeSessions{}
	r := NewReaperService(sessions, newTestStore(t), 10*time.Millisecond)
	r.Start()
	r.Start()

	assert.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.running
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
	assert.False(t, r.running)
}
