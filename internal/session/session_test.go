package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/viewport"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m := NewManager(ttl, zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, time.Minute)

	s := m.Create()
	require.NotEmpty(t, s.ID())
	assert.Equal(t, viewport.DefaultView(), s.Snapshot().View)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("no-such-session")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestSessionIDsAreUnique(t *testing.T) {
	m := newTestManager(t, time.Minute)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := m.Create().ID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestEventsMutateState(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s := m.Create()

	s.SetZoom(9)
	s.Select("0001111041700")
	s.SetFilter(models.StoreFilter{State: "OH"})

	st := s.Snapshot()
	assert.Equal(t, 9, st.View.Zoom)
	assert.Equal(t, "0001111041700", st.UPC)
	assert.Equal(t, "OH", st.Filter.State)

	centroid := models.LatLng{Lat: 42.0, Lng: -72.0}
	s.ActivateCluster(centroid)
	st = s.Snapshot()
	assert.Equal(t, 11, st.View.Zoom)
	assert.Equal(t, centroid, st.View.Center)
}

func TestResetKeepsSelection(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s := m.Create()

	s.SetZoom(12)
	s.Select("0001111041700")
	s.Reset()

	st := s.Snapshot()
	assert.Equal(t, viewport.DefaultView(), st.View)
	assert.Equal(t, "0001111041700", st.UPC)
}

func TestFrameMemo(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s := m.Create()

	key := MemoKey(s.Snapshot(), 1)
	_, ok := s.CachedFrame(key)
	assert.False(t, ok)

	frame := &models.MapFrame{Mode: models.RenderModeClustered}
	s.StoreFrame(key, frame)

	got, ok := s.CachedFrame(key)
	require.True(t, ok)
	assert.Same(t, frame, got)

	// Any state change produces a different key and the memo misses.
	s.SetZoom(7)
	missKey := MemoKey(s.Snapshot(), 1)
	assert.NotEqual(t, key, missKey)
	_, ok = s.CachedFrame(missKey)
	assert.False(t, ok)
}

func TestMemoKeyIncludesDataVersion(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s := m.Create()

	st := s.Snapshot()
	assert.NotEqual(t, MemoKey(st, 1), MemoKey(st, 2))
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	m := newTestManager(t, 10*time.Millisecond)

	stale := m.Create()
	fresh := m.Create()

	// Age the stale session past the TTL, then keep the fresh one alive.
	time.Sleep(20 * time.Millisecond)
	_, ok := m.Get(fresh.ID())
	require.True(t, ok)

	m.sweep(time.Now())

	_, ok = m.Get(stale.ID())
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestRemove(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s := m.Create()

	m.Remove(s.ID())
	_, ok := m.Get(s.ID())
	assert.False(t, ok)
}
