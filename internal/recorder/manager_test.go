package recorder

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/chromedp/chromedp/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionrecorder/backend/internal/models"
)

type closableSource struct {
	*fakeSource
	alive  bool
	closed int
}

func (c *closableSource) Alive() bool { return c.alive }

func (c *closableSource) Close() error {
	c.closed++
	return nil
}

type sourceRecorder struct {
	sources map[string]*closableSource
	fail    error
}

func (sr *sourceRecorder) factory(targetURL string, _ device.Info) (EventSource, error) {
	if sr.fail != nil {
		return nil, sr.fail
	}
	src := &closableSource{fakeSource: newFakeSource(targetURL), alive: true}
	sr.sources[targetURL] = src
	return src, nil
}

func newTestManager(store StateStore) (*RecorderManager, *sourceRecorder) {
	sr := &sourceRecorder{sources: map[string]*closableSource{}}
	return NewRecorderManager(sr.factory, store), sr
}

func TestManagerLifecycle(t *testing.T) {
	store := newMemStore()
	rm, sr := newTestManager(store)
	ctx := context.Background()

	require.NoError(t, rm.StartRecording(ctx, "s1", "https://shop.test/", device.Info{Name: "Desktop"}))
	err := rm.StartRecording(ctx, "s1", "https://shop.test/", device.Info{})
	assert.Error(t, err)

	src := sr.sources["https://shop.test/"]
	src.fire("click", Event{Target: element(t, "//button")})

	active, actions, err := rm.GetRecordingStatus("s1")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Len(t, actions, 2)

	n, err := rm.StopRecording(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.actions["s1"], 2)

	// still registered until cleanup
	_, ok := rm.GetRecorder("s1")
	assert.True(t, ok)

	require.NoError(t, rm.CleanupRecording(ctx, "s1"))
	assert.Equal(t, 1, src.closed)
	_, ok = rm.GetRecorder("s1")
	assert.False(t, ok)
	assert.Equal(t, 1, store.saves)
}

func TestManagerUnknownSession(t *testing.T) {
	rm, _ := newTestManager(nil)

	_, err := rm.StopRecording(context.Background(), "missing")
	assert.Error(t, err)
	_, _, err = rm.GetRecordingStatus("missing")
	assert.Error(t, err)
	_, err = rm.Subscribe("missing", func(models.Action) {})
	assert.Error(t, err)
	assert.NoError(t, rm.CleanupRecording(context.Background(), "missing"))
}

func TestManagerFactoryError(t *testing.T) {
	rm, sr := newTestManager(nil)
	sr.fail = errors.New("no chrome")

	err := rm.StartRecording(context.Background(), "s1", "https://shop.test/", device.Info{})
	assert.ErrorContains(t, err, "no chrome")
	assert.Empty(t, rm.SessionIDs())

	// the id is free again
	sr.fail = nil
	assert.NoError(t, rm.StartRecording(context.Background(), "s1", "https://shop.test/", device.Info{}))
}

func TestManagerSubscribe(t *testing.T) {
	rm, sr := newTestManager(nil)
	ctx := context.Background()
	require.NoError(t, rm.StartRecording(ctx, "s1", "https://shop.test/", device.Info{}))

	var got []models.Action
	cancel, err := rm.Subscribe("s1", func(a models.Action) { got = append(got, a) })
	require.NoError(t, err)

	src := sr.sources["https://shop.test/"]
	src.fire("input", Event{Target: element(t, "//input")})
	cancel()
	src.fire("click", Event{Target: element(t, "//button")})

	require.Len(t, got, 1)
	assert.Equal(t, models.ActionInput, got[0].Type)
}

func TestManagerReapDead(t *testing.T) {
	store := newMemStore()
	rm, sr := newTestManager(store)
	ctx := context.Background()
	require.NoError(t, rm.StartRecording(ctx, "live", "https://a.test/", device.Info{}))
	require.NoError(t, rm.StartRecording(ctx, "dead", "https://b.test/", device.Info{}))

	sr.sources["https://b.test/"].alive = false

	reaped := rm.ReapDead(ctx)
	assert.Equal(t, []string{"dead"}, reaped)
	assert.Equal(t, []string{"live"}, rm.SessionIDs())
	assert.Len(t, store.actions["dead"], 1)
	assert.Equal(t, 1, sr.sources["https://b.test/"].closed)

	rm.CleanupAll(ctx)
	ids := rm.SessionIDs()
	sort.Strings(ids)
	assert.Empty(t, ids)
	assert.Equal(t, 1, sr.sources["https://a.test/"].closed)
}
