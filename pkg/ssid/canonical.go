// Package ssid computes stable, deterministic identifiers for street network
// features: geometries, intersections, location references and references.
//
// Every identifier is produced the same way:
//
//	typed input → canonical message → 128-bit MD5 digest → hex or base-58 text
//
// The canonical message is a fixed-format ASCII string, for example
//
//	Intersection 110.000000 45.000000
//	Geometry 110.000000 45.000000 115.000000 50.000000
//
// so two producers that agree on the coordinates always agree on the ID.
//
// Go Learning Note — Deterministic Float Formatting:
// fmt's %f verbs and strconv.FormatFloat never consult the process locale, so
// the decimal separator is always '.', and the 'f' format never switches to
// exponent notation. strconv rounds the exact binary value of the float64
// (ties go to even), which is the same rule C printf and Python's format()
// follow. That is what lets IDs computed here match IDs computed elsewhere.
package ssid

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
)

// Kind identifies one of the fixed canonical message shapes.
type Kind int

const (
	KindGeometry Kind = iota
	KindIntersection
	KindLocationReference
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindIntersection:
		return "intersection"
	case KindLocationReference:
		return "location_reference"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

const (
	coordPrecision   = 6
	integerPrecision = 0

	// distanceScale converts meters into the centimeter value carried in
	// location reference messages.
	distanceScale = 100
)

// Entity is anything that can be turned into a canonical message.
type Entity interface {
	Kind() Kind
	Message() (string, error)
}

// Geometry is an ordered street centerline. Point order is significant:
// reversing the line changes its identifier.
type Geometry orb.LineString

// Intersection is a single topological node.
type Intersection orb.Point

// LocationReference is a point along a street annotated with optional
// directional data. Nil pointers mean "absent"; a non-nil pointer to zero is
// a present zero and is printed.
type LocationReference struct {
	Point      orb.Point
	Bearing    *float64 // degrees
	Distance   *float64 // meters to the next location reference
	OutBearing *float64 // degrees
}

// Reference ties a form of way to the identifiers of its two location
// references.
type Reference struct {
	FormOfWay            FormOfWay
	LocationReferenceIDs [2]string
}

// Float returns a pointer to v, for populating optional LocationReference
// fields inline.
func Float(v float64) *float64 {
	return &v
}

func (Geometry) Kind() Kind          { return KindGeometry }
func (Intersection) Kind() Kind      { return KindIntersection }
func (LocationReference) Kind() Kind { return KindLocationReference }
func (Reference) Kind() Kind         { return KindReference }

// Message renders "Geometry x0 y0 x1 y1 ...".
func (g Geometry) Message() (string, error) {
	if len(g) == 0 {
		return "", invalidInput("geometry", "line must contain at least one point")
	}

	buf := make([]byte, 0, len("Geometry")+len(g)*24)
	buf = append(buf, "Geometry"...)
	for i, p := range g {
		var err error
		buf = append(buf, ' ')
		buf, err = appendPoint(buf, p, "geometry["+strconv.Itoa(i)+"]")
		if err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

// Message renders "Intersection x y".
func (in Intersection) Message() (string, error) {
	buf := make([]byte, 0, 40)
	buf = append(buf, "Intersection "...)
	buf, err := appendPoint(buf, orb.Point(in), "intersection")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Message renders "x y[ bearing distance*100][ outBearing]".
//
// Distance and out-bearing only carry meaning next to a bearing, so either
// one without a bearing is rejected rather than silently dropped. A bearing
// without a distance is rejected too: the pair is always written together.
func (lr LocationReference) Message() (string, error) {
	if lr.Bearing == nil {
		if lr.Distance != nil {
			return "", invalidInput("distance", "distance requires a bearing")
		}
		if lr.OutBearing != nil {
			return "", invalidInput("out_bearing", "out bearing requires a bearing")
		}
	} else if lr.Distance == nil {
		return "", invalidInput("distance", "bearing requires a distance")
	}

	buf := make([]byte, 0, 48)
	buf, err := appendPoint(buf, lr.Point, "point")
	if err != nil {
		return "", err
	}

	if lr.Bearing != nil {
		if buf, err = appendFixed(buf, *lr.Bearing, integerPrecision, "bearing"); err != nil {
			return "", err
		}
		if buf, err = appendFixed(buf, *lr.Distance*distanceScale, integerPrecision, "distance"); err != nil {
			return "", err
		}
	}
	if lr.OutBearing != nil {
		if buf, err = appendFixed(buf, *lr.OutBearing, integerPrecision, "out_bearing"); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

// Message renders "Reference formOfWay id0 id1".
func (r Reference) Message() (string, error) {
	if !r.FormOfWay.Valid() {
		return "", invalidInput("form_of_way", "unknown form of way %d", int(r.FormOfWay))
	}
	for i, id := range r.LocationReferenceIDs {
		if id == "" {
			return "", invalidInput(locRefField(i), "location reference id is empty")
		}
		if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
			return "", invalidInput(locRefField(i), "location reference id contains whitespace")
		}
	}

	var b strings.Builder
	b.WriteString("Reference ")
	b.WriteString(strconv.Itoa(int(r.FormOfWay)))
	for _, id := range r.LocationReferenceIDs {
		b.WriteByte(' ')
		b.WriteString(id)
	}
	return b.String(), nil
}

// Canonicalize returns the canonical message for e.
func Canonicalize(e Entity) (string, error) {
	if e == nil {
		return "", invalidInput("entity", "entity is nil")
	}
	return e.Message()
}

// GeometryMessage is shorthand for Geometry(line).Message().
func GeometryMessage(line orb.LineString) (string, error) {
	return Geometry(line).Message()
}

// IntersectionMessage is shorthand for Intersection(p).Message().
func IntersectionMessage(p orb.Point) (string, error) {
	return Intersection(p).Message()
}

// LocationReferenceMessage is shorthand for lr.Message().
func LocationReferenceMessage(lr LocationReference) (string, error) {
	return lr.Message()
}

// ReferenceMessage builds the message of a reference over two already
// computed location reference identifiers.
func ReferenceMessage(fow FormOfWay, fromID, toID string) (string, error) {
	return Reference{FormOfWay: fow, LocationReferenceIDs: [2]string{fromID, toID}}.Message()
}

func appendPoint(buf []byte, p orb.Point, field string) ([]byte, error) {
	if !finite(p[0]) {
		return nil, invalidInput(field, "longitude is not a finite number")
	}
	if !finite(p[1]) {
		return nil, invalidInput(field, "latitude is not a finite number")
	}
	buf = strconv.AppendFloat(buf, p[0], 'f', coordPrecision, 64)
	buf = append(buf, ' ')
	buf = strconv.AppendFloat(buf, p[1], 'f', coordPrecision, 64)
	return buf, nil
}

// appendFixed writes a leading space followed by v at the given precision.
func appendFixed(buf []byte, v float64, prec int, field string) ([]byte, error) {
	if !finite(v) {
		return nil, invalidInput(field, "value is not a finite number")
	}
	buf = append(buf, ' ')
	return strconv.AppendFloat(buf, v, 'f', prec, 64), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func locRefField(i int) string {
	return "location_reference_ids[" + strconv.Itoa(i) + "]"
}
