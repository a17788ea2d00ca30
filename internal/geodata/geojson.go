package geodata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadStateGeoJSON reads state boundaries from a bundled GeoJSON
// FeatureCollection. It is the offline fallback when the Census download
// is unavailable.
func LoadStateGeoJSON(path string) ([]StateShape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: read geojson %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geodata: parse geojson %s", path)
	}

	var states []StateShape
	for _, f := range fc.Features {
		fips := propString(f.Properties, "STATEFP")
		if !conusOrStateFIPS(fips) {
			continue
		}
		mp := asMultiPolygon(f.Geometry)
		if mp == nil {
			continue
		}
		abbrev := propString(f.Properties, "STUSPS")
		if abbrev == "" {
			abbrev = AbbrevForFIPS(fips)
		}
		states = append(states, StateShape{
			FIPS:     fips,
			Abbrev:   abbrev,
			Name:     propString(f.Properties, "NAME"),
			Geometry: mp,
		})
	}
	if len(states) == 0 {
		return nil, eris.Errorf("geodata: no state features in %s", path)
	}
	return states, nil
}

func propString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%02.0f", t)
	}
	return ""
}

// asMultiPolygon promotes a Polygon to a single-member MultiPolygon so
// downstream code handles one geometry type.
func asMultiPolygon(g geom.T) *geom.MultiPolygon {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(t.SRID())
		if err := mp.Push(t); err != nil {
			return nil
		}
		return mp
	}
	return nil
}
