package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/viewport"
)

// State is a consistent snapshot of one session: camera, selected product
// and active filters.
type State struct {
	View   models.ViewState   `json:"view"`
	UPC    string             `json:"upc,omitempty"`
	Filter models.StoreFilter `json:"filter"`
}

// Session holds the map state for one connected client. All methods lock,
// so concurrent events on the same session apply one at a time.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	view     *viewport.Controller
	upc      string
	filter   models.StoreFilter
	lastSeen time.Time

	memoKey   string
	memoFrame *models.MapFrame
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		view:      viewport.NewController(),
		lastSeen:  now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{View: s.view.State(), UPC: s.upc, Filter: s.filter}
}

// SetZoom applies a renderer zoom change.
func (s *Session) SetZoom(zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetZoom(zoom)
}

// SetCenter applies a renderer pan.
func (s *Session) SetCenter(center models.LatLng) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetCenter(center)
}

// ActivateCluster dives toward a cluster centroid.
func (s *Session) ActivateCluster(centroid models.LatLng) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.ActivateCluster(centroid)
}

// Reset restores the default camera. Product selection and filters survive a
// reset; only the view returns home.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Reset()
}

// Select switches the session to a product. An empty UPC clears the
// selection and the map falls back to neutral markers.
func (s *Session) Select(upc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upc = upc
}

// SetFilter replaces the attribute filters.
func (s *Session) SetFilter(filter models.StoreFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

// CachedFrame returns the memoized frame when the key still matches.
func (s *Session) CachedFrame(key string) (*models.MapFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoFrame != nil && s.memoKey == key {
		return s.memoFrame, true
	}
	return nil, false
}

// StoreFrame memoizes the frame computed for the given key. A session keeps
// only the most recent frame; any state change makes the key miss.
func (s *Session) StoreFrame(key string, frame *models.MapFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoKey = key
	s.memoFrame = frame
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// MemoKey builds the cache key for a frame: every input that can change the
// rendered bytes is folded in, including the data version so a harvest
// invalidates all cached frames at once.
func MemoKey(st State, dataVersion uint64) string {
	return fmt.Sprintf("%d|%.6f|%.6f|%s|%s|%d",
		st.View.Zoom, st.View.Center.Lat, st.View.Center.Lng,
		st.UPC, st.Filter.Key(), dataVersion)
}
