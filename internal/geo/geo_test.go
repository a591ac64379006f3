package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetersBetween(t *testing.T) {
	stuttgart := Coord{Lng: 9.1829, Lat: 48.7758}

	assert.InDelta(t, 0, MetersBetween(stuttgart, stuttgart), 1e-9)

	north := Coord{Lng: stuttgart.Lng, Lat: stuttgart.Lat + 0.01}
	assert.InDelta(t, 1112, MetersBetween(stuttgart, north), 2)
}

func TestOffsetRoundTrip(t *testing.T) {
	origin := Coord{Lng: 9.18, Lat: 48.78}
	moved := Offset(origin, 300, 400)

	assert.InDelta(t, 500, MetersBetween(origin, moved), 2)
}

func TestCoordValid(t *testing.T) {
	testCases := []struct {
		name  string
		coord Coord
		valid bool
	}{
		{name: "city", coord: Coord{Lng: 9.18, Lat: 48.78}, valid: true},
		{name: "NaN", coord: Coord{Lng: math.NaN(), Lat: 1}, valid: false},
		{name: "infinite", coord: Coord{Lng: 1, Lat: math.Inf(1)}, valid: false},
		{name: "latitude out of range", coord: Coord{Lng: 1, Lat: 91}, valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.coord.Valid())
		})
	}
}

func TestParseCoord(t *testing.T) {
	testCases := []struct {
		in        string
		expected  Coord
		expectErr bool
	}{
		{in: "9.1829,48.7758", expected: Coord{Lng: 9.1829, Lat: 48.7758}},
		{in: " 13.405 , 52.52 ", expected: Coord{Lng: 13.405, Lat: 52.52}},
		{in: "-0.1276,51.5072", expected: Coord{Lng: -0.1276, Lat: 51.5072}},
		{in: "tems", expectErr: true},
		{in: "9.18;48.77", expectErr: true},
		{in: "abc,48", expectErr: true},
		{in: "9,north", expectErr: true},
		{in: "200,48", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCoord(tc.in)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrBadCoord)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	c := Coord{Lng: 9.18, Lat: 48.77}
	back, err := ParseCoord(c.String())
	assert.NoError(t, err)
	assert.InDelta(t, c.Lng, back.Lng, 1e-9)
	assert.InDelta(t, c.Lat, back.Lat, 1e-9)
}
