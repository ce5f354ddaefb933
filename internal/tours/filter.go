package tours

import (
	"time"

	"github.com/me/tourtrack/pkg/model"
)

// FilterSet narrows a tour collection. Zero-valued fields impose no
// constraint; nil bounds are unset.
type FilterSet struct {
	TourType  string `json:"tour_type,omitempty" yaml:"tour_type,omitempty"`
	DateFrom  string `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	EbikeOnly bool   `json:"ebike_only,omitempty" yaml:"ebike_only,omitempty"`

	MinDistance  *float64 `json:"min_distance,omitempty" yaml:"min_distance,omitempty"`
	MaxDistance  *float64 `json:"max_distance,omitempty" yaml:"max_distance,omitempty"`
	MinElevation *float64 `json:"min_elevation,omitempty" yaml:"min_elevation,omitempty"`
}

// Active reports whether any field constrains the collection.
func (f FilterSet) Active() bool {
	return f.TourType != "" || f.DateFrom != "" || f.DateTo != "" || f.EbikeOnly ||
		f.MinDistance != nil || f.MaxDistance != nil || f.MinElevation != nil
}

// Float returns a pointer to v, for filling bounds.
func Float(v float64) *float64 {
	return &v
}

// Filter returns the tours that satisfy every active predicate in f, in
// their original order. The input slice is not modified.
func Filter(tours []model.Tour, f FilterSet) []model.Tour {
	m := newMatcher(f)
	out := make([]model.Tour, 0, len(tours))
	for _, t := range tours {
		if m.match(&t) {
			out = append(out, t)
		}
	}
	return out
}

// matcher holds a FilterSet with its dates parsed once.
type matcher struct {
	f FilterSet

	from, until       time.Time
	hasFrom, hasUntil bool
}

func newMatcher(f FilterSet) matcher {
	m := matcher{f: f}
	// Unparsable filter dates constrain nothing.
	m.from, m.hasFrom = model.ParseDate(f.DateFrom)
	if to, ok := model.ParseDate(f.DateTo); ok {
		m.until, m.hasUntil = to.AddDate(0, 0, 1), true
	}
	return m
}

func (m matcher) match(t *model.Tour) bool {
	f := m.f
	if f.TourType != "" && t.Type != f.TourType {
		return false
	}
	if f.EbikeOnly && !t.Ebike {
		return false
	}
	if f.MinDistance != nil && t.DistanceKm < *f.MinDistance {
		return false
	}
	if f.MaxDistance != nil && t.DistanceKm > *f.MaxDistance {
		return false
	}
	if f.MinElevation != nil && t.ElevationUp < *f.MinElevation {
		return false
	}
	if m.hasFrom || m.hasUntil {
		// Tours with an unreadable date are never excluded by the range.
		d, ok := t.Time()
		if !ok {
			return true
		}
		if m.hasFrom && d.Before(m.from) {
			return false
		}
		if m.hasUntil && !d.Before(m.until) {
			return false
		}
	}
	return true
}
