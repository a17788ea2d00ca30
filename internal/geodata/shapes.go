package geodata

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// StateShape is one state boundary with its identifying attributes.
type StateShape struct {
	FIPS     string
	Abbrev   string
	Name     string
	Geometry *geom.MultiPolygon
}

// CountyShape is one county boundary.
type CountyShape struct {
	GEOID     string // 5-digit county FIPS
	StateFIPS string
	Name      string
	Geometry  *geom.MultiPolygon
}

// LoadStateShapefile reads a cartographic boundary state shapefile,
// keeping the 50 states plus DC and dropping territories.
func LoadStateShapefile(path string) ([]StateShape, error) {
	var states []StateShape
	err := eachShape(path, func(attrs map[string]string, mp *geom.MultiPolygon) {
		fips := attrs["statefp"]
		if !conusOrStateFIPS(fips) {
			return
		}
		abbrev := attrs["stusps"]
		if abbrev == "" {
			abbrev = AbbrevForFIPS(fips)
		}
		states = append(states, StateShape{
			FIPS:     fips,
			Abbrev:   abbrev,
			Name:     attrs["name"],
			Geometry: mp,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, eris.Errorf("geodata: no state boundaries in %s", path)
	}
	return states, nil
}

// LoadCountyShapefile reads a cartographic boundary county shapefile,
// filtered to states.
func LoadCountyShapefile(path string) ([]CountyShape, error) {
	var counties []CountyShape
	err := eachShape(path, func(attrs map[string]string, mp *geom.MultiPolygon) {
		statefp := attrs["statefp"]
		if !conusOrStateFIPS(statefp) {
			return
		}
		geoid := attrs["geoid"]
		if geoid == "" {
			geoid = statefp + attrs["countyfp"]
		}
		counties = append(counties, CountyShape{
			GEOID:     geoid,
			StateFIPS: statefp,
			Name:      attrs["name"],
			Geometry:  mp,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(counties) == 0 {
		return nil, eris.Errorf("geodata: no county boundaries in %s", path)
	}
	return counties, nil
}

func conusOrStateFIPS(fips string) bool {
	n, err := strconv.Atoi(fips)
	if err != nil {
		return false
	}
	return n >= 1 && n <= maxStateFIPS
}

// eachShape iterates a shapefile, converting each polygon record to a
// go-geom MultiPolygon and passing lower-cased attributes to fn.
func eachShape(path string, fn func(attrs map[string]string, mp *geom.MultiPolygon)) error {
	reader, err := shp.Open(path)
	if err != nil {
		return eris.Wrapf(err, "geodata: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[name] = val
		}
		fn(attrs, mp)
	}

	if skipped > 0 {
		zap.L().Debug("geodata: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile parts carry no hole bookkeeping we need for choropleth fill,
// so every ring becomes its own single-ring polygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geodata: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geodata: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
