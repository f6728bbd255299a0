package services

import (
	"context"
	"sync/atomic"

	"tripreco/internal/clients/geocoding"
)

// fakeGeocoder answers forward lookups from a table and reverse lookups
// through a function.
type fakeGeocoder struct {
	places  map[string]*geocoding.Place
	reverse func(lon, lat float64) (geocoding.Region, error)
	calls   atomic.Int32
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query string) (*geocoding.Place, error) {
	f.calls.Add(1)
	if p, ok := f.places[query]; ok {
		return p, nil
	}
	return nil, geocoding.ErrNotFound
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lon, lat float64) (geocoding.Region, error) {
	f.calls.Add(1)
	if f.reverse == nil {
		return geocoding.UnknownRegion, geocoding.ErrNotFound
	}
	return f.reverse(lon, lat)
}

func fixedRegion(sido, sgg string) func(lon, lat float64) (geocoding.Region, error) {
	return func(lon, lat float64) (geocoding.Region, error) {
		return geocoding.Region{Sido: sido, Sgg: sgg}, nil
	}
}

// fakeModel returns a fixed cluster and records the last row it saw.
type fakeModel struct {
	cluster     int
	err         error
	lastRow     []any
	categorical []int
}

func (m *fakeModel) Predict(row []any, categorical []int) (int, error) {
	m.lastRow = row
	m.categorical = categorical
	return m.cluster, m.err
}
