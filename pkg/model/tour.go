package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Tour is a single recorded GPS tour as returned by /api/tours.
type Tour struct {
	ID            int             `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Type          string          `json:"type" yaml:"type"`
	Date          string          `json:"date" yaml:"date"`
	DistanceKm    float64         `json:"distance_km" yaml:"distance_km"`
	DurationS     float64         `json:"duration_s" yaml:"duration_s"`
	SpeedKmh      float64         `json:"speed_kmh" yaml:"speed_kmh"`
	ElevationUp   float64         `json:"elevation_up" yaml:"elevation_up"`
	ElevationDown float64         `json:"elevation_down" yaml:"elevation_down"`
	StartLat      float64         `json:"start_lat" yaml:"start_lat"`
	StartLon      float64         `json:"start_lon" yaml:"start_lon"`
	Ebike         bool            `json:"ebike" yaml:"ebike"`
	KomootID      string          `json:"komootid,omitempty" yaml:"komootid,omitempty"`
	KomootHref    string          `json:"komoothref,omitempty" yaml:"komoothref,omitempty"`
	TrackGeoJSON  json.RawMessage `json:"track_geojson,omitempty" yaml:"-"`
}

// dateLayouts are the formats the backend has been seen to emit for Tour.Date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a tour or filter date. Values without a zone are UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time returns the parsed tour date, or false if it cannot be parsed.
func (t *Tour) Time() (time.Time, bool) {
	return ParseDate(t.Date)
}

// TourSummary is returned by /api/tours/summary.
type TourSummary struct {
	TotalTours       int            `json:"total_tours" yaml:"total_tours"`
	TotalDistance    float64        `json:"total_distance" yaml:"total_distance"`
	TotalDuration    float64        `json:"total_duration" yaml:"total_duration"`
	TotalElevationUp float64        `json:"total_elevation_up" yaml:"total_elevation_up"`
	Types            map[string]int `json:"types" yaml:"types"`
}

// TourTypes is the body of /api/tours/types.
type TourTypes struct {
	Types []string `json:"types"`
}

// NearbyQuery is the body of POST /api/tours/nearby.
type NearbyQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// FeatureCollection is the GeoJSON document served by /api/tours/geojson.
// Features are kept opaque; only their count matters to the client.
type FeatureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// UploadResult is the response of the GPX upload endpoints.
type UploadResult struct {
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	TourID   int      `json:"tour_id,omitempty" yaml:"tour_id,omitempty"`
	Imported int      `json:"imported,omitempty" yaml:"imported,omitempty"`
	Failed   []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}
