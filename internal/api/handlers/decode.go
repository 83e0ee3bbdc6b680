package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Position is a GeoJSON position: [lon, lat] with an optional altitude that
// is ignored.
type Position []float64

func (p Position) point(field string) (orb.Point, error) {
	if len(p) < 2 {
		return orb.Point{}, fmt.Errorf("%s: position needs longitude and latitude", field)
	}
	return orb.Point{p[0], p[1]}, nil
}

// EnumValue accepts either a JSON string ("SingleCarriageway") or a JSON
// number (3) and keeps its text for the ssid Parse functions.
type EnumValue string

func (e *EnumValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = EnumValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a name or a number, got %s", data)
	}
	*e = EnumValue(n.String())
	return nil
}

// pointFrom reads a point from either a bare position or a GeoJSON Point.
func pointFrom(pos Position, g *geojson.Geometry) (orb.Point, error) {
	switch {
	case pos != nil && g != nil:
		return orb.Point{}, fmt.Errorf("set either point or geometry, not both")
	case pos != nil:
		return pos.point("point")
	case g != nil:
		p, ok := g.Geometry().(orb.Point)
		if !ok {
			return orb.Point{}, fmt.Errorf("geometry: want Point, got %s", g.Type)
		}
		return p, nil
	}
	return orb.Point{}, fmt.Errorf("point is required")
}

// lineFrom reads a line from either a coordinate array or a GeoJSON
// LineString. An empty line is passed through so the identifier layer
// reports it.
func lineFrom(coords []Position, g *geojson.Geometry) (orb.LineString, error) {
	switch {
	case coords != nil && g != nil:
		return nil, fmt.Errorf("set either coordinates or geometry, not both")
	case g != nil:
		line, ok := g.Geometry().(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("geometry: want LineString, got %s", g.Type)
		}
		return line, nil
	}

	line := make(orb.LineString, 0, len(coords))
	for i, pos := range coords {
		p, err := pos.point(fmt.Sprintf("coordinates[%d]", i))
		if err != nil {
			return nil, err
		}
		line = append(line, p)
	}
	return line, nil
}
