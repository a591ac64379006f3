package placement

import (
	geojson "github.com/paulmach/go.geojson"
)

// FeatureCollection renders a placement as GeoJSON points. props may be nil;
// otherwise its result is attached to each feature, plus an "index" property.
func FeatureCollection[T any](placed []Placed[T], props func(T) map[string]any) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range placed {
		f := geojson.NewPointFeature([]float64{p.Coord.Lng, p.Coord.Lat})
		f.SetProperty("index", i)
		if props != nil {
			for k, v := range props(p.Item) {
				f.SetProperty(k, v)
			}
		}
		fc.AddFeature(f)
	}
	return fc
}
