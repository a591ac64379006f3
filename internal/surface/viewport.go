package surface

import (
	"math"

	"rydm/internal/geo"
)

// A terminal cell covers cellWidth x cellHeight Web Mercator pixels at the
// current zoom. Cells are roughly twice as tall as they are wide.
const (
	tileSize   = 256.0
	cellWidth  = 8.0
	cellHeight = 16.0

	MinZoom = 1.0
	MaxZoom = 19.0

	maxMercatorSin = 0.9999
)

func worldSize(zoom float64) float64 {
	return tileSize * math.Exp2(zoom)
}

// worldPoint projects c to Web Mercator pixel coordinates at zoom.
func worldPoint(c geo.Coord, zoom float64) (x, y float64) {
	size := worldSize(zoom)
	x = (c.Lng + 180) / 360 * size
	sin := math.Sin(c.Lat * math.Pi / 180)
	sin = math.Max(-maxMercatorSin, math.Min(maxMercatorSin, sin))
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return x, y
}

func worldCoord(x, y, zoom float64) geo.Coord {
	size := worldSize(zoom)
	n := math.Pi - 2*math.Pi*y/size
	return geo.Coord{
		Lng: x/size*360 - 180,
		Lat: math.Atan(math.Sinh(n)) * 180 / math.Pi,
	}
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// MetersPerCell is the horizontal ground distance covered by one cell.
func MetersPerCell(lat, zoom float64) float64 {
	const equator = 2 * math.Pi * 6378137
	return equator * math.Cos(lat*math.Pi/180) / worldSize(zoom) * cellWidth
}

// Project returns the grid cell c falls into. ok is false when the cell is
// outside the surface.
func (s *Surface) Project(c geo.Coord) (col, row int, ok bool) {
	cx, cy := worldPoint(s.center, s.zoom)
	x, y := worldPoint(c, s.zoom)
	col = s.width/2 + int(math.Floor((x-cx)/cellWidth+0.5))
	row = s.height/2 + int(math.Floor((y-cy)/cellHeight+0.5))
	ok = col >= 0 && col < s.width && row >= 0 && row < s.height
	return col, row, ok
}

// Unproject returns the coordinate at the centre of a grid cell.
func (s *Surface) Unproject(col, row int) geo.Coord {
	cx, cy := worldPoint(s.center, s.zoom)
	x := cx + float64(col-s.width/2)*cellWidth
	y := cy + float64(row-s.height/2)*cellHeight
	return worldCoord(x, y, s.zoom)
}

// gridSpacing is the distance between graticule dots in world pixels.
const gridSpacing = 64.0

// OnGrid reports whether a graticule intersection falls inside the cell, so
// a drawn lattice moves with the map.
func (s *Surface) OnGrid(col, row int) bool {
	cx, cy := worldPoint(s.center, s.zoom)
	x := cx + float64(col-s.width/2)*cellWidth - cellWidth/2
	y := cy + float64(row-s.height/2)*cellHeight - cellHeight/2
	return crosses(x, cellWidth) && crosses(y, cellHeight)
}

func crosses(start, span float64) bool {
	return math.Floor(start/gridSpacing) != math.Floor((start+span)/gridSpacing)
}
