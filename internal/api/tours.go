package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/me/tourtrack/pkg/model"
)

// ListTours fetches tours matching params.
func (c *Client) ListTours(ctx context.Context, params url.Values) ([]model.Tour, error) {
	var tours []model.Tour
	err := c.Do(ctx, "list tours", Request{Method: http.MethodGet, Path: "/api/tours", Query: params}, &tours)
	if err != nil {
		return nil, err
	}
	return tours, nil
}

// GetTour fetches a single tour with its track.
func (c *Client) GetTour(ctx context.Context, id int) (*model.Tour, error) {
	var tour model.Tour
	path := "/api/tours/" + strconv.Itoa(id)
	if err := c.Do(ctx, "get tour", Request{Method: http.MethodGet, Path: path}, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// NearbyTours fetches tours starting within q.RadiusKm of a point.
func (c *Client) NearbyTours(ctx context.Context, q model.NearbyQuery) ([]model.Tour, error) {
	var tours []model.Tour
	err := c.Do(ctx, "nearby tours", Request{Method: http.MethodPost, Path: "/api/tours/nearby", JSON: q}, &tours)
	if err != nil {
		return nil, err
	}
	return tours, nil
}

// TourSummary fetches aggregate statistics.
func (c *Client) TourSummary(ctx context.Context, params url.Values) (*model.TourSummary, error) {
	var summary model.TourSummary
	err := c.Do(ctx, "tour summary", Request{Method: http.MethodGet, Path: "/api/tours/summary", Query: params}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// TourTypes fetches the list of known tour types.
func (c *Client) TourTypes(ctx context.Context) ([]string, error) {
	var types model.TourTypes
	if err := c.Do(ctx, "tour types", Request{Method: http.MethodGet, Path: "/api/tours/types"}, &types); err != nil {
		return nil, err
	}
	return types.Types, nil
}

// ToursGeoJSON fetches tour tracks as a GeoJSON feature collection.
func (c *Client) ToursGeoJSON(ctx context.Context, params url.Values) (*model.FeatureCollection, error) {
	var fc model.FeatureCollection
	err := c.Do(ctx, "tours geojson", Request{Method: http.MethodGet, Path: "/api/tours/geojson", Query: params}, &fc)
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

// UploadTour uploads one GPX file.
func (c *Client) UploadTour(ctx context.Context, file FilePart) (*model.UploadResult, error) {
	var res model.UploadResult
	req := Request{
		Method:    http.MethodPost,
		Path:      "/api/tours/upload",
		FileField: "file",
		Files:     []FilePart{file},
	}
	if err := c.Do(ctx, "upload tour", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadTours uploads several GPX files in one request.
func (c *Client) UploadTours(ctx context.Context, files []FilePart) (*model.UploadResult, error) {
	var res model.UploadResult
	req := Request{
		Method:    http.MethodPost,
		Path:      "/api/tours/upload/batch",
		FileField: "files",
		Files:     files,
	}
	if err := c.Do(ctx, "upload tours", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
