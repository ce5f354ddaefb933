// Package tours holds the tour collection, its filters and the most recent
// results of the tour endpoints.
package tours

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/pkg/model"
)

const (
	// InlineType is always offered as a type when the backend lists none.
	InlineType = "Inline"

	// DefaultRadiusKm is used by FetchNearbyTours when no radius is given.
	DefaultRadiusKm = 10.0

	// unboundedLimit asks the backend for the whole collection; filtering
	// happens client side.
	unboundedLimit = 999999
)

// ErrSuperseded is returned by FetchTours when a later call was issued
// before this one completed. The later call's result is the one kept.
var ErrSuperseded = errors.New("tours: request superseded by a newer fetch")

// Backend is the subset of the API client the store needs.
type Backend interface {
	ListTours(ctx context.Context, params url.Values) ([]model.Tour, error)
	GetTour(ctx context.Context, id int) (*model.Tour, error)
	NearbyTours(ctx context.Context, q model.NearbyQuery) ([]model.Tour, error)
	TourSummary(ctx context.Context, params url.Values) (*model.TourSummary, error)
	TourTypes(ctx context.Context) ([]string, error)
	ToursGeoJSON(ctx context.Context, params url.Values) (*model.FeatureCollection, error)
}

// Store is the tour collection store. It is safe for concurrent use.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	tours   []model.Tour
	current *model.Tour
	summary *model.TourSummary
	types   []string
	filters FilterSet
	errMsg  string
	loading int

	// generation increments on every FetchTours; only the response to the
	// latest generation is applied.
	generation uint64
}

// New creates an empty Store.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logging.Component(logger, "tours"),
	}
}

// FetchTours loads the full collection, merging extra into the query, and
// replaces the held tours. If another FetchTours is issued before this one
// returns, this result is dropped and ErrSuperseded is returned.
func (s *Store) FetchTours(ctx context.Context, extra url.Values) error {
	params := url.Values{
		"limit":  {strconv.Itoa(unboundedLimit)},
		"offset": {"0"},
	}
	for k, v := range extra {
		params[k] = slices.Clone(v)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.begin()
	s.mu.Unlock()

	tours, err := s.backend.ListTours(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if gen != s.generation {
		s.logger.Debug("discarding superseded tour list", "generation", gen, "latest", s.generation)
		return ErrSuperseded
	}
	if err != nil {
		s.errMsg = api.MessageOf(err)
		s.logger.Warn("fetch tours failed", "error", err)
		return err
	}
	s.tours = tours
	s.logger.Debug("tours loaded", "count", len(tours))
	return nil
}

// FetchTourDetail loads one tour and makes it the current tour.
func (s *Store) FetchTourDetail(ctx context.Context, id int) (*model.Tour, error) {
	s.mu.Lock()
	s.begin()
	s.mu.Unlock()

	tour, err := s.backend.GetTour(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.fail("fetch tour detail", err)
		return nil, err
	}
	held := *tour
	held.TrackGeoJSON = slices.Clone(tour.TrackGeoJSON)
	s.current = &held
	return tour, nil
}

// FetchNearbyTours returns tours starting within radiusKm of the given
// point. A radius <= 0 means DefaultRadiusKm. The held collection is not
// changed.
func (s *Store) FetchNearbyTours(ctx context.Context, lat, lon, radiusKm float64) ([]model.Tour, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	s.mu.Lock()
	s.begin()
	s.mu.Unlock()

	tours, err := s.backend.NearbyTours(ctx, model.NearbyQuery{Latitude: lat, Longitude: lon, RadiusKm: radiusKm})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.fail("fetch nearby tours", err)
		return nil, err
	}
	return tours, nil
}

// FetchSummary loads aggregate statistics and keeps them as the last summary.
func (s *Store) FetchSummary(ctx context.Context) (*model.TourSummary, error) {
	summary, err := s.backend.TourSummary(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail("fetch summary", err)
		return nil, err
	}
	held := *summary
	held.Types = maps.Clone(summary.Types)
	s.summary = &held
	return summary, nil
}

// FetchToursGeoJSON returns the tracks as a feature collection.
func (s *Store) FetchToursGeoJSON(ctx context.Context, params url.Values) (*model.FeatureCollection, error) {
	fc, err := s.backend.ToursGeoJSON(ctx, params)
	if err != nil {
		s.mu.Lock()
		s.fail("fetch geojson", err)
		s.mu.Unlock()
		return nil, err
	}
	s.logger.Debug("geojson loaded", "features", len(fc.Features))
	return fc, nil
}

// FetchTourTypes loads the backend's type list, which then drives Types.
func (s *Store) FetchTourTypes(ctx context.Context) ([]string, error) {
	types, err := s.backend.TourTypes(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail("fetch tour types", err)
		return nil, err
	}
	s.types = types
	return slices.Clone(types), nil
}

// begin marks a request in flight and clears the last error. Callers hold mu.
func (s *Store) begin() {
	s.loading++
	s.errMsg = ""
}

// fail records err's message. Callers hold mu.
func (s *Store) fail(op string, err error) {
	s.errMsg = api.MessageOf(err)
	s.logger.Warn(op+" failed", "error", err)
}

// Tours returns a copy of the held collection.
func (s *Store) Tours() []model.Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tours)
}

// Filtered returns the held collection narrowed by the current filters.
func (s *Store) Filtered() []model.Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.tours, s.filters)
}

// Types returns the type choices for filtering: the backend's list sorted if
// it is non-empty, otherwise the distinct types in the collection plus
// InlineType, sorted.
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.types) > 0 {
		types := slices.Clone(s.types)
		slices.Sort(types)
		return types
	}

	seen := map[string]bool{InlineType: true}
	types := []string{InlineType}
	for _, t := range s.tours {
		if !seen[t.Type] {
			seen[t.Type] = true
			types = append(types, t.Type)
		}
	}
	slices.Sort(types)
	return types
}

// Current returns a copy of the tour loaded by the last successful
// FetchTourDetail, or nil.
func (s *Store) Current() *model.Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	t.TrackGeoJSON = slices.Clone(t.TrackGeoJSON)
	return &t
}

// Summary returns a copy of the last loaded summary, or nil.
func (s *Store) Summary() *model.TourSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	sum := *s.summary
	sum.Types = maps.Clone(sum.Types)
	return &sum
}

// Filters returns the current filter set.
func (s *Store) Filters() FilterSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// UpdateFilters applies fn to the current filter set.
func (s *Store) UpdateFilters(fn func(*FilterSet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.filters)
}

// ResetFilters clears every filter.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = FilterSet{}
}

// Err returns the message of the last failed fetch, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError forgets the last failure.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Loading reports whether a tracked fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}
