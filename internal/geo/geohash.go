// Package geo implements geohash encoding and a proximity index over place
// coordinates, used to narrow "within N km" filters before the exact
// haversine check.
//
// Go Learning Note — What is a Geohash?
// A geohash encodes a latitude/longitude pair into a short string where
// nearby locations share a common prefix. Each extra character shrinks the
// cell, so the precision can be chosen to match a search radius:
//
//	1 → ~5000 km    4 → ~39 km     7 → ~153 m
//	2 → ~1250 km    5 → ~5 km      8 → ~19 m
//	3 → ~156 km     6 → ~1.2 km
//
// Lodging and second-stage activity radii are a few kilometers while the
// transport boundary can be 100 km, so the index picks the precision per
// radius instead of using one fixed value.
package geo

import (
	"strings"
)

const (
	base32 = "0123456789bcdefghjkmnpqrstuvwxyz"
)

// Neighbor lookup tables, indexed by direction and then by the parity of the
// hash length (0 = even, 1 = odd). The geohash alternates longitude and
// latitude bits, so a character's grid orientation flips with parity.
var (
	base32Map = map[byte]int{}
	neighbors = map[string][2]string{
		"n": {"p0r21436x8zb9dcf5h7kjnmqesgutwvy", "bc01fg45238967deuvhjyznpkmstqrwx"},
		"s": {"14365h7k9dcfesgujnmqp0r2twvyx8zb", "238967debc01fg45kmstqrwxuvhjyznp"},
		"e": {"bc01fg45238967deuvhjyznpkmstqrwx", "p0r21436x8zb9dcf5h7kjnmqesgutwvy"},
		"w": {"238967debc01fg45kmstqrwxuvhjyznp", "14365h7k9dcfesgujnmqp0r2twvyx8zb"},
	}
	borders = map[string][2]string{
		"n": {"prxz", "bcfguvyz"},
		"s": {"028b", "0145hjnp"},
		"e": {"bcfguvyz", "prxz"},
		"w": {"0145hjnp", "028b"},
	}
)

func init() {
	for i := 0; i < len(base32); i++ {
		base32Map[base32[i]] = i
	}
}

// Encode converts latitude and longitude to a geohash string with given precision.
//
// Algorithm overview (binary interleaving):
//  1. Start with the full range: lat [-90, 90], lon [-180, 180]
//  2. Alternate between longitude (even bits) and latitude (odd bits)
//  3. For each step, bisect the range and set bit=1 if value >= midpoint
//  4. Every 5 bits are encoded as one base32 character
func Encode(lat, lon float64, precision int) string {
	if precision <= 0 {
		precision = 6
	}
	if precision > 12 {
		precision = 12
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	isEven := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if isEven {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isEven = !isEven
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// Decode returns the center of the cell a geohash names.
func Decode(hash string) (lat, lon float64) {
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	isEven := true

	for i := 0; i < len(hash); i++ {
		cd, ok := base32Map[hash[i]]
		if !ok {
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if isEven {
				mid := (minLon + maxLon) / 2
				if bit == 1 {
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			isEven = !isEven
		}
	}

	lat = (minLat + maxLat) / 2
	lon = (minLon + maxLon) / 2
	return
}

// Neighbor returns the geohash of the adjacent cell in the given direction
// ("n", "s", "e", "w"). When the last character sits on its parent's border
// the parent is shifted first.
func Neighbor(hash string, direction string) string {
	if len(hash) == 0 {
		return ""
	}

	hash = strings.ToLower(hash)
	lastChar := hash[len(hash)-1]
	parent := hash[:len(hash)-1]
	parity := len(hash) % 2

	if strings.IndexByte(borders[direction][parity], lastChar) >= 0 && len(parent) > 0 {
		parent = Neighbor(parent, direction)
	}

	idx := strings.IndexByte(neighbors[direction][parity], lastChar)
	if idx >= 0 {
		return parent + string(base32[idx])
	}

	return hash
}

// AllNeighbors returns the center cell and its 8 neighbors.
func AllNeighbors(hash string) []string {
	n := Neighbor(hash, "n")
	s := Neighbor(hash, "s")
	return []string{
		hash,
		n,
		s,
		Neighbor(hash, "e"),
		Neighbor(hash, "w"),
		Neighbor(n, "e"),
		Neighbor(n, "w"),
		Neighbor(s, "e"),
		Neighbor(s, "w"),
	}
}

// minCellKm is the shorter side of a geohash cell at the equator, by precision.
var minCellKm = []float64{0, 4992, 624, 156, 19.5, 4.89, 0.61, 0.153, 0.019}

// PrecisionForRadius returns the finest precision whose 3x3 neighborhood
// still covers radiusKm around any point up to ±60° latitude, or 0 when no
// precision does and the caller must scan everything.
func PrecisionForRadius(radiusKm float64) int {
	best := 0
	for p := 1; p < len(minCellKm); p++ {
		// Longitude cells shrink with cos(latitude); cos(60°) = 0.5.
		if minCellKm[p]*0.5 >= radiusKm {
			best = p
		}
	}
	return best
}
