package ssid

import (
	"strconv"
)

// FormOfWay classifies the physical form of a street segment. The numeric
// value is what appears in Reference messages.
type FormOfWay int

const (
	FormOfWayUndefined FormOfWay = iota
	FormOfWayMotorway
	FormOfWayMultipleCarriageway
	FormOfWaySingleCarriageway
	FormOfWayRoundabout
	FormOfWayTrafficSquare
	FormOfWaySlipRoad
	FormOfWayOther
)

var formOfWayNames = [...]string{
	FormOfWayUndefined:           "Undefined",
	FormOfWayMotorway:            "Motorway",
	FormOfWayMultipleCarriageway: "MultipleCarriageway",
	FormOfWaySingleCarriageway:   "SingleCarriageway",
	FormOfWayRoundabout:          "Roundabout",
	FormOfWayTrafficSquare:       "TrafficSquare",
	FormOfWaySlipRoad:            "SlipRoad",
	FormOfWayOther:               "Other",
}

func (f FormOfWay) Valid() bool {
	return f >= FormOfWayUndefined && f <= FormOfWayOther
}

func (f FormOfWay) String() string {
	if !f.Valid() {
		return "FormOfWay(" + strconv.Itoa(int(f)) + ")"
	}
	return formOfWayNames[f]
}

// ParseFormOfWay accepts either a name ("SlipRoad") or a number ("6").
// The empty string maps to FormOfWayUndefined.
func ParseFormOfWay(s string) (FormOfWay, error) {
	if s == "" {
		return FormOfWayUndefined, nil
	}
	for i, name := range formOfWayNames {
		if name == s {
			return FormOfWay(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && FormOfWay(n).Valid() {
		return FormOfWay(n), nil
	}
	return 0, invalidInput("form_of_way", "unknown form of way %q", s)
}

// RoadClass is the functional class of a street geometry. It is carried on
// geometry records but never hashed.
type RoadClass int

const (
	RoadClassMotorway RoadClass = iota
	RoadClassTrunk
	RoadClassPrimary
	RoadClassSecondary
	RoadClassTertiary
	RoadClassResidential
	RoadClassUnclassified
	RoadClassService
	RoadClassOther
)

var roadClassNames = [...]string{
	RoadClassMotorway:     "Motorway",
	RoadClassTrunk:        "Trunk",
	RoadClassPrimary:      "Primary",
	RoadClassSecondary:    "Secondary",
	RoadClassTertiary:     "Tertiary",
	RoadClassResidential:  "Residential",
	RoadClassUnclassified: "Unclassified",
	RoadClassService:      "Service",
	RoadClassOther:        "Other",
}

func (r RoadClass) Valid() bool {
	return r >= RoadClassMotorway && r <= RoadClassOther
}

func (r RoadClass) String() string {
	if !r.Valid() {
		return "RoadClass(" + strconv.Itoa(int(r)) + ")"
	}
	return roadClassNames[r]
}

// ParseRoadClass accepts either a name ("Residential") or a number ("5").
// The empty string maps to RoadClassOther.
func ParseRoadClass(s string) (RoadClass, error) {
	if s == "" {
		return RoadClassOther, nil
	}
	for i, name := range roadClassNames {
		if name == s {
			return RoadClass(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && RoadClass(n).Valid() {
		return RoadClass(n), nil
	}
	return 0, invalidInput("road_class", "unknown road class %q", s)
}
