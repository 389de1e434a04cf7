package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/mapview"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/session"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/viewport"
)

// ErrSessionNotFound marks requests against an unknown or expired session.
var ErrSessionNotFound = errors.New("session not found")

// MapService owns the map pipeline: it reacts to session events, loads the
// filtered store set with the selected product's latest prices, and hands
// both to the frame builder. Identical state always yields identical frames,
// so each session memoizes its last frame keyed by state plus data version.
type MapService struct {
	storeRepo *repository.StoreRepository
	priceRepo *repository.PriceRepository
	builder   *mapview.Builder
	sessions  *session.Manager
	logger    *zap.Logger

	// dataVersion increments when a harvest lands new prices, which
	// invalidates every memoized frame at once.
	dataVersion atomic.Uint64
}

// NewMapService creates a new map service
func NewMapService(storeRepo *repository.StoreRepository, priceRepo *repository.PriceRepository,
	builder *mapview.Builder, sessions *session.Manager, logger *zap.Logger) *MapService {
	return &MapService{
		storeRepo: storeRepo,
		priceRepo: priceRepo,
		builder:   builder,
		sessions:  sessions,
		logger:    logger,
	}
}

// CreateSession opens a new map session at the default view
func (s *MapService) CreateSession() *session.Session {
	return s.sessions.Create()
}

// EndSession discards a session
func (s *MapService) EndSession(sessionID string) {
	s.sessions.Remove(sessionID)
}

// SessionState returns the current state of a session
func (s *MapService) SessionState(sessionID string) (session.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return session.State{}, err
	}
	return sess.Snapshot(), nil
}

// FrameForSession returns the frame for the session's current state, served
// from the memo when nothing changed
func (s *MapService) FrameForSession(sessionID string) (*models.MapFrame, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.frameFor(sess)
}

// GeoJSONForSession returns the session's current frame as a GeoJSON
// feature collection
func (s *MapService) GeoJSONForSession(sessionID string) (*geojson.FeatureCollection, error) {
	frame, err := s.FrameForSession(sessionID)
	if err != nil {
		return nil, err
	}
	return mapview.FrameGeoJSON(frame), nil
}

// Zoom applies a zoom change and returns the recomputed frame
func (s *MapService) Zoom(sessionID string, zoom int) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.SetZoom(zoom)
	})
}

// Pan applies a center change and returns the recomputed frame
func (s *MapService) Pan(sessionID string, center models.LatLng) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.SetCenter(center)
	})
}

// ActivateCluster dives into a cluster: the camera recenters on the
// centroid and zooms in two steps
func (s *MapService) ActivateCluster(sessionID string, centroid models.LatLng) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.ActivateCluster(centroid)
	})
}

// ResetView restores the default camera, keeping product selection and
// filters
func (s *MapService) ResetView(sessionID string) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.Reset()
	})
}

// SelectProduct switches the session to a product. An unknown or empty UPC
// is allowed; stores simply render neutral until prices exist for it.
func (s *MapService) SelectProduct(sessionID, upc string) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.Select(upc)
	})
}

// ApplyFilter replaces the session's attribute filters
func (s *MapService) ApplyFilter(sessionID string, filter models.StoreFilter) (*models.MapFrame, error) {
	return s.apply(sessionID, func(sess *session.Session) {
		sess.SetFilter(filter)
	})
}

// FrameForQuery builds a frame for a one-shot stateless request
func (s *MapService) FrameForQuery(q models.MapQuery) (*models.MapFrame, error) {
	st := session.State{
		View: models.ViewState{
			Zoom:   q.Zoom,
			Center: models.LatLng{Lat: q.CenterLat, Lng: q.CenterLng},
		},
		UPC:    q.UPC,
		Filter: q.StoreFilter,
	}
	if st.View.Zoom < viewport.MinZoom {
		st.View.Zoom = viewport.MinZoom
	}
	if st.View.Zoom > viewport.MaxZoom {
		st.View.Zoom = viewport.MaxZoom
	}
	return s.buildFrame(st)
}

// GeoJSONForQuery builds a stateless frame as a GeoJSON feature collection
func (s *MapService) GeoJSONForQuery(q models.MapQuery) (*geojson.FeatureCollection, error) {
	frame, err := s.FrameForQuery(q)
	if err != nil {
		return nil, err
	}
	return mapview.FrameGeoJSON(frame), nil
}

// DataVersion returns the current price data generation
func (s *MapService) DataVersion() uint64 {
	return s.dataVersion.Load()
}

// BumpDataVersion marks the price data as changed. The harvester calls this
// after landing new observations.
func (s *MapService) BumpDataVersion() {
	v := s.dataVersion.Add(1)
	s.logger.Info("price data version bumped", zap.Uint64("version", v))
}

func (s *MapService) session(sessionID string) (*session.Session, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *MapService) apply(sessionID string, mutate func(*session.Session)) (*models.MapFrame, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	mutate(sess)
	return s.frameFor(sess)
}

func (s *MapService) frameFor(sess *session.Session) (*models.MapFrame, error) {
	st := sess.Snapshot()
	key := session.MemoKey(st, s.dataVersion.Load())
	if frame, ok := sess.CachedFrame(key); ok {
		return frame, nil
	}

	frame, err := s.buildFrame(st)
	if err != nil {
		return nil, err
	}
	sess.StoreFrame(key, frame)
	return frame, nil
}

func (s *MapService) buildFrame(st session.State) (*models.MapFrame, error) {
	start := time.Now()

	stores, err := s.storeRepo.GetMappableStores(st.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}

	if st.UPC != "" {
		quotes, err := s.priceRepo.LatestForProduct(st.UPC)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices: %w", err)
		}
		for i := range stores {
			if q, ok := quotes[stores[i].ID]; ok {
				quote := q
				stores[i].Quote = &quote
			}
		}
	}

	frame := s.builder.BuildFrame(stores, st.View)

	s.logger.Debug("frame rebuilt",
		zap.String("mode", frame.Mode),
		zap.Int("stores", len(stores)),
		zap.Int("zoom", st.View.Zoom),
		zap.String("upc", st.UPC),
		zap.Duration("elapsed", time.Since(start)))

	return frame, nil
}
