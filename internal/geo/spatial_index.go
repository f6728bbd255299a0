package geo

import (
	"context"
	"sort"

	"tripreco/pkg/utils"
)

// PlaceHit is a place that fell inside a radius query, with its exact
// great-circle distance from the query point.
type PlaceHit struct {
	Ref      int
	Lat      float64
	Lon      float64
	Distance float64
}

type indexedPlace struct {
	ref int
	lat float64
	lon float64
}

// PlaceIndex buckets place coordinates by geohash so a radius query only
// measures places in the 3x3 cell neighborhood of the query point. Ref is the
// caller's row position; hits come back in Ref order so downstream stable
// sorts keep the source table's order on ties.
//
// Go Learning Note — Coarse filter → Fine filter:
// The geohash neighborhood is a cheap over-approximation of the circle; every
// candidate still gets an exact haversine check. The precision is derived from
// the radius so the neighborhood always contains the whole circle.
type PlaceIndex struct {
	precision int
	cells     map[string][]indexedPlace
	all       []indexedPlace
}

// NewPlaceIndex creates an empty index sized for queries of radiusKm.
func NewPlaceIndex(radiusKm float64) *PlaceIndex {
	return &PlaceIndex{
		precision: PrecisionForRadius(radiusKm),
		cells:     make(map[string][]indexedPlace),
	}
}

// Add registers a place under the caller's row reference.
func (ix *PlaceIndex) Add(ref int, lat, lon float64) {
	p := indexedPlace{ref: ref, lat: lat, lon: lon}
	ix.all = append(ix.all, p)
	if ix.precision == 0 {
		return
	}
	gh := Encode(lat, lon, ix.precision)
	ix.cells[gh] = append(ix.cells[gh], p)
}

// Within returns every place whose distance from (lat, lon) is at most
// radiusKm, ordered by Ref.
func (ix *PlaceIndex) Within(ctx context.Context, lat, lon, radiusKm float64) []PlaceHit {
	var candidates []indexedPlace
	if ix.precision == 0 || PrecisionForRadius(radiusKm) < ix.precision {
		candidates = ix.all
	} else {
		for _, gh := range AllNeighbors(Encode(lat, lon, ix.precision)) {
			candidates = append(candidates, ix.cells[gh]...)
		}
	}

	var hits []PlaceHit
	for _, p := range candidates {
		d := utils.HaversineDistance(lat, lon, p.lat, p.lon)
		if d <= radiusKm {
			hits = append(hits, PlaceHit{Ref: p.ref, Lat: p.lat, Lon: p.lon, Distance: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Ref < hits[j].Ref
	})
	return hits
}

// Count returns the number of indexed places.
func (ix *PlaceIndex) Count() int {
	return len(ix.all)
}
