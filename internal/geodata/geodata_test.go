package geodata

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/civicdata/policy-atlas/internal/fetcher"
)

func TestAbbrevForFIPS(t *testing.T) {
	assert.Equal(t, "CA", AbbrevForFIPS("06"))
	assert.Equal(t, "DC", AbbrevForFIPS("11"))
	assert.Equal(t, "", AbbrevForFIPS("72")) // Puerto Rico excluded
	assert.Equal(t, "48", FIPSForAbbrev("TX"))
}

func TestConusOrStateFIPS(t *testing.T) {
	assert.True(t, conusOrStateFIPS("01"))
	assert.True(t, conusOrStateFIPS("56"))
	assert.False(t, conusOrStateFIPS("72"))
	assert.False(t, conusOrStateFIPS(""))
	assert.False(t, conusOrStateFIPS("xx"))
}

func TestAlbersProject(t *testing.T) {
	a := NewConusAlbers()

	// The projection origin maps to x=0.
	x, y := a.Project(-96, 23)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	// West of the central meridian lands at negative x, north at
	// positive y.
	x, y = a.Project(-120, 40)
	assert.Less(t, x, 0.0)
	assert.Greater(t, y, 0.0)

	x2, _ := a.Project(-80, 40)
	assert.Greater(t, x2, 0.0)
}

func TestAlbersEqualAreaProperty(t *testing.T) {
	a := NewConusAlbers()
	// Distances should be on the order of real ground distances:
	// one degree of latitude is ~111km.
	x1, y1 := a.Project(-96, 39)
	x2, y2 := a.Project(-96, 40)
	d := math.Hypot(x2-x1, y2-y1)
	assert.InDelta(t, 111e3, d, 8e3)
}

func testMultiPolygon(t *testing.T, coords [][]float64) *geom.MultiPolygon {
	t.Helper()
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	ring := geom.NewLinearRingFlat(geom.XY, flat)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return mp
}

func squareAround(t *testing.T, lon, lat float64) *geom.MultiPolygon {
	t.Helper()
	return testMultiPolygon(t, [][]float64{
		{lon - 1, lat - 1}, {lon + 1, lat - 1}, {lon + 1, lat + 1}, {lon - 1, lat + 1}, {lon - 1, lat - 1},
	})
}

func TestProjectStates_InsetsMoveAlaskaAndHawaii(t *testing.T) {
	states := []StateShape{
		{FIPS: "08", Abbrev: "CO", Geometry: squareAround(t, -105.5, 39)},
		{FIPS: "02", Abbrev: "AK", Geometry: squareAround(t, -152, 64)},
		{FIPS: "15", Abbrev: "HI", Geometry: squareAround(t, -157, 20.5)},
	}

	shapes := ProjectStates(states)
	require.Len(t, shapes, 3)

	byKey := map[string]ProjectedShape{}
	for _, s := range shapes {
		byKey[s.Key] = s
	}

	_, coY := byKey["CO"].Centroid()
	_, akY := byKey["AK"].Centroid()
	_, hiY := byKey["HI"].Centroid()

	// Both insets land below the mountain west.
	assert.Less(t, akY, coY)
	assert.Less(t, hiY, coY)
}

func TestProjectStates_AntimeridianFold(t *testing.T) {
	// A far-Aleutian square at +172E must not blow the bounding box
	// out to the other side of the map.
	states := []StateShape{
		{FIPS: "02", Abbrev: "AK", Geometry: squareAround(t, 172, 52)},
		{FIPS: "53", Abbrev: "WA", Geometry: squareAround(t, -120, 47)},
	}
	shapes := ProjectStates(states)
	minX, _, maxX, _ := Bounds(shapes)
	assert.Less(t, maxX-minX, 10e6)
}

func TestCentroid(t *testing.T) {
	p := ProjectedShape{Rings: []Ring{{
		X: []float64{0, 2, 2, 0},
		Y: []float64{0, 0, 2, 2},
	}}}
	x, y := p.Centroid()
	assert.InDelta(t, 1.0, x, 1e-9)
	assert.InDelta(t, 1.0, y, 1e-9)
}

func TestPolygonToMultiPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 4},
		Points: []shp.Point{
			{X: -109, Y: 37}, {X: -102, Y: 37}, {X: -102, Y: 41}, {X: -109, Y: 37},
			{X: -100, Y: 30}, {X: -99, Y: 30}, {X: -99, Y: 31}, {X: -100, Y: 30},
		},
	}
	mp := polygonToMultiPolygon(poly)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 4326, mp.SRID())
}

func TestPolygonToMultiPolygon_Empty(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}

const stateGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"STATEFP": "08", "STUSPS": "CO", "NAME": "Colorado"},
      "geometry": {"type": "Polygon", "coordinates": [[[-109,37],[-102,37],[-102,41],[-109,41],[-109,37]]]}
    },
    {
      "type": "Feature",
      "properties": {"STATEFP": "72", "STUSPS": "PR", "NAME": "Puerto Rico"},
      "geometry": {"type": "Polygon", "coordinates": [[[-67,18],[-65,18],[-65,19],[-67,19],[-67,18]]]}
    }
  ]
}`

func TestLoadStateGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.geojson")
	require.NoError(t, os.WriteFile(path, []byte(stateGeoJSON), 0o644))

	states, err := LoadStateGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, states, 1) // PR filtered out

	co := states[0]
	assert.Equal(t, "CO", co.Abbrev)
	assert.Equal(t, "08", co.FIPS)
	assert.Equal(t, "Colorado", co.Name)
	assert.Equal(t, 1, co.Geometry.NumPolygons())
}

func TestLoadStateGeoJSON_Missing(t *testing.T) {
	_, err := LoadStateGeoJSON(filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
}

func TestSource_StatesFallsBackToGeoJSON(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fallback := filepath.Join(t.TempDir(), "states.geojson")
	require.NoError(t, os.WriteFile(fallback, []byte(stateGeoJSON), 0o644))

	src := &Source{
		HTTP:            fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1}),
		CacheDir:        t.TempDir(),
		FallbackGeoJSON: fallback,
		HTTPBase:        srv.URL + "/",
	}

	states, err := src.States(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "CO", states[0].Abbrev)
}
