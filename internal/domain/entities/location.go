package entities

// Location represents a geographic coordinate pair (latitude/longitude).
//
// Go Learning Note — Value Types vs Reference Types:
// Location is a small, immutable data holder passed by value. The survey
// tables store longitude as X_COORD and latitude as Y_COORD; Location always
// names them explicitly so the two never get swapped at a call site.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NewLocation creates a Location value from latitude and longitude.
func NewLocation(lat, lon float64) Location {
	return Location{
		Latitude:  lat,
		Longitude: lon,
	}
}

// FromXY builds a Location from table-style (X=lon, Y=lat) coordinates.
func FromXY(x, y float64) Location {
	return Location{Latitude: y, Longitude: x}
}

// Coord is an exact (X, Y) key used to group and exclude places.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
