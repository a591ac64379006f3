// Package geo holds the coordinate type shared by the bus, the placement
// generator and the map surfaces.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrBadCoord = errors.New("expected \"lng,lat\" in degrees")

// MetersPerDegree is the flat-earth length of one degree of latitude.
const MetersPerDegree = 111320.0

const earthRadius = 6371000.0

// Coord is a longitude/latitude pair in degrees.
type Coord struct {
	Lng float64 `json:"lng" mapstructure:"lng"`
	Lat float64 `json:"lat" mapstructure:"lat"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lng, c.Lat)
}

// Valid reports whether both components are finite and inside the WGS84 range.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lng) || math.IsNaN(c.Lat) || math.IsInf(c.Lng, 0) || math.IsInf(c.Lat, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Offset moves c by dx meters east and dy meters north using the flat-earth
// approximation. Good enough at city scale.
func Offset(c Coord, dx, dy float64) Coord {
	mPerDegLng := MetersPerDegree * math.Cos(c.Lat*math.Pi/180)
	return Coord{
		Lng: c.Lng + dx/mPerDegLng,
		Lat: c.Lat + dy/MetersPerDegree,
	}
}

// MetersBetween is the haversine distance between a and b.
func MetersBetween(a, b Coord) float64 {
	const toRad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * toRad
	dLng := (b.Lng - a.Lng) * toRad
	x := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(a.Lat*toRad)*math.Cos(b.Lat*toRad)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(x)))
}

// ParseCoord reads "lng,lat", the format String writes. Whitespace around
// either number is ignored.
func ParseCoord(s string) (Coord, error) {
	lngStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coord{}, ErrBadCoord
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %v", ErrBadCoord, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %v", ErrBadCoord, err)
	}
	c := Coord{Lng: lng, Lat: lat}
	if !c.Valid() {
		return Coord{}, fmt.Errorf("%w: %s out of range", ErrBadCoord, s)
	}
	return c, nil
}
