// Package placement scatters catalogue items around a map center.
//
// Placement is a pure function of its inputs. Two surfaces that share a seed
// and a center produce identical pins without exchanging coordinates.
package placement

import (
	"math"

	"rydm/internal/geo"
)

// Placed pairs a coordinate with the item shown there.
type Placed[T any] struct {
	Coord geo.Coord
	Item  T
}

// rng is a 32-bit xorshift stream. Draws are quantised to 1e-6 so the
// sequence is stable across platforms.
type rng struct {
	x uint32
}

func newRNG(seed int64) *rng {
	x := uint32(seed)
	if x == 0 {
		x = 1
	}
	return &rng{x: x}
}

func (r *rng) next() float64 {
	r.x ^= r.x << 13
	r.x ^= r.x >> 17
	r.x ^= r.x << 5
	return float64(r.x%1_000_000) / 1_000_000
}

// Place returns count points uniformly distributed in a disk of radiusMeters
// around center, each carrying an item from candidates. Candidates are
// shuffled with the same stream and reused cyclically when there are fewer
// of them than points. With no candidates nothing is placed.
func Place[T any](center geo.Coord, seed int64, radiusMeters float64, count int, candidates []T) []Placed[T] {
	if count <= 0 {
		return nil
	}
	r := newRNG(seed)
	coords := around(center, count, radiusMeters, r)
	items := shuffle(candidates, count, r)
	if len(items) == 0 {
		return nil
	}

	out := make([]Placed[T], 0, len(coords))
	for i, c := range coords {
		out = append(out, Placed[T]{Coord: c, Item: items[i%len(items)]})
	}
	return out
}

func around(center geo.Coord, n int, radius float64, r *rng) []geo.Coord {
	const toRad = math.Pi / 180
	mPerDegLat := geo.MetersPerDegree
	mPerDegLng := geo.MetersPerDegree * math.Cos(center.Lat*toRad)

	out := make([]geo.Coord, 0, n)
	for range n {
		theta := 2 * math.Pi * r.next()
		d := radius * math.Sqrt(r.next())
		dx, dy := d*math.Cos(theta), d*math.Sin(theta)
		out = append(out, geo.Coord{
			Lng: center.Lng + dx/mPerDegLng,
			Lat: center.Lat + dy/mPerDegLat,
		})
	}
	return out
}

// shuffle returns a Fisher-Yates shuffled copy of src truncated to n items.
func shuffle[T any](src []T, n int, r *rng) []T {
	a := make([]T, len(src))
	copy(a, src)
	for i := len(a) - 1; i > 0; i-- {
		j := int(math.Floor(r.next() * float64(i+1)))
		a[i], a[j] = a[j], a[i]
	}
	return a[:min(n, len(a))]
}
