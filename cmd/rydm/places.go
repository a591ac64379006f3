package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"rydm/internal/domain"
	"rydm/internal/geo"
	"rydm/internal/mapsync"
	"rydm/internal/placement"
)

// runPlaces prints the pins a surface would show for the given view as a
// GeoJSON feature collection.
func runPlaces(args []string, tracks []domain.Track, out io.Writer) error {
	fs := flag.NewFlagSet("places", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	lng := fs.Float64("lng", mapsync.DefaultCenter.Lng, "center longitude")
	lat := fs.Float64("lat", mapsync.DefaultCenter.Lat, "center latitude")
	seed := fs.Int64("seed", 0, "placement seed")
	radius := fs.Float64("radius", 800, "radius in meters")
	count := fs.Int("count", 5, "number of pins")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("places: %w", err)
	}

	center := geo.Coord{Lng: *lng, Lat: *lat}
	if !center.Valid() {
		return fmt.Errorf("places: invalid center %s", center)
	}
	if len(tracks) == 0 {
		return errors.New("places: no tracks configured")
	}

	placed := placement.Place(center, *seed, *radius, *count, tracks)
	fc := placement.FeatureCollection(placed, func(t domain.Track) map[string]any {
		return map[string]any{"id": t.ID, "title": t.Title, "artist": t.Artist}
	})
	raw, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("places: %w", err)
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}
