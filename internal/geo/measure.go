// Package geo derives the linear-referencing data that location references
// carry (line length, points along a line, inbound and outbound bearings) and
// keeps a map-tile index of stored features.
//
// All distances are meters on a sphere (haversine, orb.EarthRadius). Bearings
// are integer azimuths in [0, 360).
//
// Go Learning Note — "github.com/paulmach/orb":
// orb models geometries as plain slices and arrays: orb.Point is [2]float64
// (lon, lat) and orb.LineString is []orb.Point. Because they are ordinary Go
// values you can index, range over, and copy them without conversions. The
// orb/geo sub-package adds spherical measurements (distance, bearing,
// destination point) on top of those types.
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// BearingSampleMeters is how much of the line a bearing describes: the 20
// meters immediately following (outbound) or preceding (inbound) a point.
const BearingSampleMeters = 20.0

// ErrLineTooShort is returned when a line has fewer than two points.
var ErrLineTooShort = errors.New("line must contain at least two points")

// Anchor is a derived location reference position on a line.
type Anchor struct {
	Point           orb.Point
	InboundBearing  *float64
	OutboundBearing *float64
	DistanceToNext  *float64 // meters
}

// Length returns the haversine length of line in meters.
func Length(line orb.LineString) float64 {
	return orbgeo.LengthHaversine(line)
}

// Along returns the point that lies meters along line, clamped to the first
// and last points.
func Along(line orb.LineString, meters float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if meters <= 0 {
		return line[0]
	}

	travelled := 0.0
	for i := 1; i < len(line); i++ {
		from, to := line[i-1], line[i]
		segment := orbgeo.DistanceHaversine(from, to)
		if travelled+segment >= meters {
			if segment == 0 {
				return to
			}
			return orbgeo.PointAtBearingAndDistance(from, orbgeo.Bearing(from, to), meters-travelled)
		}
		travelled += segment
	}
	return line[len(line)-1]
}

// Azimuth returns the rounded compass bearing from one point to another,
// normalized into [0, 360).
func Azimuth(from, to orb.Point) float64 {
	a := math.Mod(math.Round(orbgeo.Bearing(from, to)), 360)
	if a < 0 {
		a += 360
	}
	if a == 0 {
		return 0 // no negative zero
	}
	return a
}

// OutboundBearing is the azimuth of the BearingSampleMeters after at. Lines
// no longer than the sample use the bearing from start to end.
func OutboundBearing(line orb.LineString, length, at float64) float64 {
	if length > BearingSampleMeters {
		return Azimuth(Along(line, at), Along(line, at+BearingSampleMeters))
	}
	return Azimuth(line[0], line[len(line)-1])
}

// InboundBearing is the azimuth of the BearingSampleMeters before at. Lines
// no longer than the sample use the bearing from start to end.
func InboundBearing(line orb.LineString, length, at float64) float64 {
	if length > BearingSampleMeters {
		return Azimuth(Along(line, at-BearingSampleMeters), Along(line, at))
	}
	return Azimuth(line[0], line[len(line)-1])
}

// Anchors derives the start and end location reference positions of line.
// The start carries the outbound bearing and the distance to the end; the
// end carries the inbound bearing.
func Anchors(line orb.LineString) ([2]Anchor, error) {
	if len(line) < 2 {
		return [2]Anchor{}, ErrLineTooShort
	}

	length := Length(line)
	outbound := OutboundBearing(line, length, 0)
	inbound := InboundBearing(line, length, length)

	return [2]Anchor{
		{
			Point:           line[0],
			OutboundBearing: &outbound,
			DistanceToNext:  &length,
		},
		{
			Point:          line[len(line)-1],
			InboundBearing: &inbound,
		},
	}, nil
}

// Reverse returns a reversed copy of line. The input is not modified.
func Reverse(line orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}
