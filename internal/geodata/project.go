package geodata

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Albers is a spherical Albers equal-area conic projection.
type Albers struct {
	n, c, rho0 float64
	lon0       float64
	radius     float64
}

// NewConusAlbers returns the standard continental-US Albers projection:
// standard parallels 29.5N and 45.5N, origin 23N 96W.
func NewConusAlbers() *Albers {
	const (
		radius = 6378137.0
		lat0   = 23.0
		lon0   = -96.0
		lat1   = 29.5
		lat2   = 45.5
	)
	phi0 := lat0 * math.Pi / 180
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180

	n := (math.Sin(phi1) + math.Sin(phi2)) / 2
	c := math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1)
	rho0 := radius / n * math.Sqrt(c-2*n*math.Sin(phi0))

	return &Albers{
		n:      n,
		c:      c,
		rho0:   rho0,
		lon0:   lon0 * math.Pi / 180,
		radius: radius,
	}
}

// Project maps a lon/lat pair (degrees) to projected meters.
func (a *Albers) Project(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180

	rho := a.radius / a.n * math.Sqrt(a.c-2*a.n*math.Sin(phi))
	theta := a.n * (lam - a.lon0)

	return rho * math.Sin(theta), a.rho0 - rho*math.Cos(theta)
}

// Inset placement for the non-contiguous states, applied after
// projection so Alaska and Hawaii sit below the lower 48.
const (
	alaskaScale    = 0.35
	alaskaOffsetX  = -1800000.0
	alaskaOffsetY  = -1400000.0
	hawaiiOffsetX  = 5200000.0
	hawaiiOffsetY  = -1200000.0
	alaskaFIPS     = "02"
	hawaiiFIPS     = "15"
	alaskaWrapLon  = 0.0 // Aleutian islands cross the antimeridian
	alaskaWrapSpan = 360.0
)

// Ring is one closed boundary ring in projected coordinates.
type Ring struct {
	X, Y []float64
}

// ProjectedShape is a state or county boundary in map coordinates,
// with insets applied.
type ProjectedShape struct {
	Key   string // state abbrev or county GEOID
	FIPS  string
	Rings []Ring
}

// Centroid returns the area-weighted centroid across all rings, used for
// label placement.
func (p ProjectedShape) Centroid() (x, y float64) {
	var totalArea float64
	for _, r := range p.Rings {
		a, cx, cy := ringCentroid(r)
		totalArea += a
		x += cx * a
		y += cy * a
	}
	if totalArea == 0 {
		return 0, 0
	}
	return x / totalArea, y / totalArea
}

func ringCentroid(r Ring) (area, cx, cy float64) {
	n := len(r.X)
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r.X[i]*r.Y[j] - r.X[j]*r.Y[i]
		area += cross
		cx += (r.X[i] + r.X[j]) * cross
		cy += (r.Y[i] + r.Y[j]) * cross
	}
	area /= 2
	if area == 0 {
		return 0, 0, 0
	}
	cx /= 6 * area
	cy /= 6 * area
	return math.Abs(area), cx, cy
}

// ProjectStates projects state geometry into map coordinates, rescaling
// and repositioning Alaska and Hawaii.
func ProjectStates(states []StateShape) []ProjectedShape {
	albers := NewConusAlbers()
	out := make([]ProjectedShape, 0, len(states))
	for _, s := range states {
		ps := ProjectedShape{Key: s.Abbrev, FIPS: s.FIPS}
		ps.Rings = projectRings(albers, s.Geometry, s.FIPS)
		if len(ps.Rings) == 0 {
			continue
		}
		out = append(out, ps)
	}
	return out
}

// ProjectCounties projects county geometry, applying the same inset
// transforms by parent state.
func ProjectCounties(counties []CountyShape) []ProjectedShape {
	albers := NewConusAlbers()
	out := make([]ProjectedShape, 0, len(counties))
	for _, c := range counties {
		ps := ProjectedShape{Key: c.GEOID, FIPS: c.StateFIPS}
		ps.Rings = projectRings(albers, c.Geometry, c.StateFIPS)
		if len(ps.Rings) == 0 {
			continue
		}
		out = append(out, ps)
	}
	return out
}

func projectRings(albers *Albers, mp *geom.MultiPolygon, stateFIPS string) []Ring {
	if mp == nil {
		return nil
	}
	var rings []Ring
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			lr := poly.LinearRing(j)
			coords := lr.FlatCoords()
			stride := lr.Stride()

			ring := Ring{
				X: make([]float64, 0, len(coords)/stride),
				Y: make([]float64, 0, len(coords)/stride),
			}
			for k := 0; k+1 < len(coords); k += stride {
				lon, lat := coords[k], coords[k+1]
				if stateFIPS == alaskaFIPS && lon > alaskaWrapLon {
					// Fold the far Aleutians back across the antimeridian.
					lon -= alaskaWrapSpan
				}
				x, y := albers.Project(lon, lat)
				x, y = applyInset(stateFIPS, x, y)
				ring.X = append(ring.X, x)
				ring.Y = append(ring.Y, y)
			}
			if len(ring.X) >= 3 {
				rings = append(rings, ring)
			}
		}
	}
	return rings
}

func applyInset(stateFIPS string, x, y float64) (float64, float64) {
	switch stateFIPS {
	case alaskaFIPS:
		return x*alaskaScale + alaskaOffsetX, y*alaskaScale + alaskaOffsetY
	case hawaiiFIPS:
		return x + hawaiiOffsetX, y + hawaiiOffsetY
	}
	return x, y
}

// Bounds returns the bounding box across all shapes.
func Bounds(shapes []ProjectedShape) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range shapes {
		for _, r := range s.Rings {
			for i := range r.X {
				minX = math.Min(minX, r.X[i])
				minY = math.Min(minY, r.Y[i])
				maxX = math.Max(maxX, r.X[i])
				maxY = math.Max(maxY, r.Y[i])
			}
		}
	}
	return minX, minY, maxX, maxY
}
