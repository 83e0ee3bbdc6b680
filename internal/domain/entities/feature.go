package entities

import (
	"time"

	"github.com/paulmach/orb"
	"sharedstreets/pkg/ssid"
)

// Intersection is a node joining street geometries.
//
// Go Learning Note — Custom JSON Field Names:
// The struct tag `json:"lon"` makes this field serialize as "lon" instead of
// "Lon" in JSON. The "omitempty" option omits the field when it holds its zero
// value; on a pointer that means nil, which is how NodeID stays out of the
// output unless a caller supplied one.
type Intersection struct {
	ID                   string   `json:"id" yaml:"id"`
	Lon                  float64  `json:"lon" yaml:"lon"`
	Lat                  float64  `json:"lat" yaml:"lat"`
	NodeID               *int64   `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	InboundReferenceIDs  []string `json:"inboundReferenceIds" yaml:"inboundReferenceIds"`
	OutboundReferenceIDs []string `json:"outboundReferenceIds" yaml:"outboundReferenceIds"`
}

// Geometry is a street centerline plus the identifiers of everything derived
// from it.
type Geometry struct {
	ID                 string    `json:"id" yaml:"id"`
	FromIntersectionID string    `json:"fromIntersectionId" yaml:"fromIntersectionId"`
	ToIntersectionID   string    `json:"toIntersectionId" yaml:"toIntersectionId"`
	ForwardReferenceID string    `json:"forwardReferenceId" yaml:"forwardReferenceId"`
	BackReferenceID    string    `json:"backReferenceId" yaml:"backReferenceId"`
	RoadClass          string    `json:"roadClass" yaml:"roadClass"`
	Lonlats            []float64 `json:"lonlats" yaml:"lonlats"`
}

// LocationReference is a point on a reference with its bearings and the
// distance (centimeters, as published) to the next location reference.
// IntersectionID is the identifier of the node at the same position.
type LocationReference struct {
	ID                string   `json:"id" yaml:"id"`
	IntersectionID    string   `json:"intersectionId" yaml:"intersectionId"`
	Lon               float64  `json:"lon" yaml:"lon"`
	Lat               float64  `json:"lat" yaml:"lat"`
	InboundBearing    *float64 `json:"inboundBearing,omitempty" yaml:"inboundBearing,omitempty"`
	OutboundBearing   *float64 `json:"outboundBearing,omitempty" yaml:"outboundBearing,omitempty"`
	DistanceToNextRef *int64   `json:"distanceToNextRef,omitempty" yaml:"distanceToNextRef,omitempty"`
}

// Reference is a directed traversal of a geometry.
type Reference struct {
	ID                 string              `json:"id" yaml:"id"`
	GeometryID         string              `json:"geometryId,omitempty" yaml:"geometryId,omitempty"`
	FormOfWay          int                 `json:"formOfWay" yaml:"formOfWay"`
	LocationReferences []LocationReference `json:"locationReferences" yaml:"locationReferences"`
}

// Record is what the feature store keeps per identifier: the value returned
// to clients, the canonical message it was hashed from, and the points used
// for tile indexing.
type Record struct {
	ID       string      `json:"id" yaml:"id"`
	Kind     string      `json:"kind" yaml:"kind"`
	Format   ssid.Format `json:"format" yaml:"format"`
	Message  string      `json:"message" yaml:"message"`
	Points   []orb.Point `json:"-" yaml:"-"`
	Value    any         `json:"value" yaml:"value"`
	StoredAt time.Time   `json:"storedAt" yaml:"storedAt"`
}

// NewRecord stamps a record with the current time.
func NewRecord(id string, kind ssid.Kind, format ssid.Format, message string, points []orb.Point, value any) *Record {
	return &Record{
		ID:       id,
		Kind:     kind.String(),
		Format:   format,
		Message:  message,
		Points:   points,
		Value:    value,
		StoredAt: time.Now(),
	}
}

// Lonlats flattens a line into [lon0, lat0, lon1, lat1, ...].
func Lonlats(line orb.LineString) []float64 {
	lonlats := make([]float64, 0, 2*len(line))
	for _, p := range line {
		lonlats = append(lonlats, p.Lon(), p.Lat())
	}
	return lonlats
}

// LonlatsToLine is the inverse of Lonlats. A trailing odd value is ignored.
func LonlatsToLine(lonlats []float64) orb.LineString {
	line := make(orb.LineString, 0, len(lonlats)/2)
	for i := 0; i+1 < len(lonlats); i += 2 {
		line = append(line, orb.Point{lonlats[i], lonlats[i+1]})
	}
	return line
}
