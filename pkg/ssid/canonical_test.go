package ssid

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectionMessage(t *testing.T) {
	tests := []struct {
		name string
		pt   orb.Point
		want string
	}{
		{
			name: "integer coordinates",
			pt:   orb.Point{110, 45},
			want: "Intersection 110.000000 45.000000",
		},
		{
			name: "negative longitude",
			pt:   orb.Point{-74.003388, 40.634538},
			want: "Intersection -74.003388 40.634538",
		},
		{
			name: "trailing zero is kept",
			pt:   orb.Point{-74.004107, 40.63406},
			want: "Intersection -74.004107 40.634060",
		},
		{
			name: "rounds to six digits",
			pt:   orb.Point{-74.00962750000001, 40.740100500000004},
			want: "Intersection -74.009628 40.740101",
		},
		{
			name: "tiny values stay fixed point",
			pt:   orb.Point{1e-7, 1e-9},
			want: "Intersection 0.000000 0.000000",
		},
		{
			name: "large values stay fixed point",
			pt:   orb.Point{1e21, -179.9999995},
			want: "Intersection 1000000000000000000000.000000 -180.000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntersectionMessage(tt.pt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryMessage(t *testing.T) {
	tests := []struct {
		name string
		line orb.LineString
		want string
	}{
		{
			name: "integer line",
			line: orb.LineString{{110, 45}, {115, 50}, {120, 55}},
			want: "Geometry 110.000000 45.000000 115.000000 50.000000 120.000000 55.000000",
		},
		{
			name: "float32 sourced coordinates",
			line: orb.LineString{{-74.007568359375, 40.75239562988281}, {-74.00729370117188, 40.753089904785156}},
			want: "Geometry -74.007568 40.752396 -74.007294 40.753090",
		},
		{
			name: "single point",
			line: orb.LineString{{110, 45}},
			want: "Geometry 110.000000 45.000000",
		},
		{
			// -74.0085895 is stored as -74.00858949999..., so it rounds down.
			// Rounding its shortest decimal string instead would give -74.008590.
			name: "osm sourced coordinates",
			line: orb.LineString{
				{-74.008536, 40.744171900000005},
				{-74.0085628, 40.7440325},
				{-74.0085895, 40.7438948},
				{-74.0086801, 40.7434298},
				{-74.0087517, 40.743065300000005},
			},
			want: "Geometry -74.008536 40.744172 -74.008563 40.744033 -74.008589 40.743895 -74.008680 40.743430 -74.008752 40.743065",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeometryMessage(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryMessage_Empty(t *testing.T) {
	for _, line := range []orb.LineString{nil, {}} {
		msg, err := GeometryMessage(line)
		assert.Empty(t, msg)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestLocationReferenceMessage(t *testing.T) {
	pt := orb.Point{-74.0048213, 40.7416415}

	tests := []struct {
		name string
		lr   LocationReference
		want string
	}{
		{
			name: "point only",
			lr:   LocationReference{Point: orb.Point{-74.0051265, 40.7408505}},
			want: "-74.005127 40.740851",
		},
		{
			name: "bearing and distance",
			lr:   LocationReference{Point: pt, Bearing: Float(208), Distance: Float(92.79)},
			want: "-74.004821 40.741642 208 9279",
		},
		{
			name: "bearing distance and out bearing",
			lr:   LocationReference{Point: pt, Bearing: Float(208), Distance: Float(92.79), OutBearing: Float(188)},
			want: "-74.004821 40.741642 208 9279 188",
		},
		{
			name: "present zeros are printed",
			lr:   LocationReference{Point: orb.Point{0, 0}, Bearing: Float(0), Distance: Float(0)},
			want: "0.000000 0.000000 0 0",
		},
		{
			name: "bearing rounds half to even",
			lr:   LocationReference{Point: orb.Point{0, 0}, Bearing: Float(2.5), Distance: Float(0.125), OutBearing: Float(3.5)},
			want: "0.000000 0.000000 2 12 4",
		},
		{
			name: "fractional bearing rounds",
			lr:   LocationReference{Point: orb.Point{0, 0}, Bearing: Float(228.890377), Distance: Float(1.004)},
			want: "0.000000 0.000000 229 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocationReferenceMessage(tt.lr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationReferenceMessage_Invalid(t *testing.T) {
	pt := orb.Point{-74.0048213, 40.7416415}

	tests := []struct {
		name  string
		lr    LocationReference
		field string
	}{
		{
			name:  "distance without bearing",
			lr:    LocationReference{Point: pt, Distance: Float(10)},
			field: "distance",
		},
		{
			name:  "out bearing without bearing",
			lr:    LocationReference{Point: pt, OutBearing: Float(10)},
			field: "out_bearing",
		},
		{
			name:  "bearing without distance",
			lr:    LocationReference{Point: pt, Bearing: Float(10)},
			field: "distance",
		},
		{
			name:  "nan latitude",
			lr:    LocationReference{Point: orb.Point{1, math.NaN()}},
			field: "point",
		},
		{
			name:  "infinite bearing",
			lr:    LocationReference{Point: pt, Bearing: Float(math.Inf(1)), Distance: Float(1)},
			field: "bearing",
		},
		{
			name:  "distance overflows when scaled",
			lr:    LocationReference{Point: pt, Bearing: Float(1), Distance: Float(math.MaxFloat64)},
			field: "distance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.lr.Message()
			assert.Empty(t, msg)
			require.ErrorIs(t, err, ErrInvalidInput)

			var ssErr *Error
			require.True(t, errors.As(err, &ssErr))
			assert.Equal(t, tt.field, ssErr.Field)
		})
	}
}

func TestReferenceMessage(t *testing.T) {
	got, err := ReferenceMessage(FormOfWayMultipleCarriageway,
		"749442bfe6fc43f18d646f60040182db", "13fd78d99a6019397ba58238567850b8")
	require.NoError(t, err)
	assert.Equal(t, "Reference 2 749442bfe6fc43f18d646f60040182db 13fd78d99a6019397ba58238567850b8", got)

	_, err = ReferenceMessage(FormOfWay(8), "a", "b")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ReferenceMessage(FormOfWayUndefined, "", "b")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ReferenceMessage(FormOfWayUndefined, "a", "b c")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIntersectionMessage_NonFinite(t *testing.T) {
	for _, pt := range []orb.Point{{math.NaN(), 0}, {0, math.Inf(-1)}} {
		_, err := IntersectionMessage(pt)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := GeometryMessage(orb.LineString{{1, 2}, {math.Inf(1), 2}})
	var ssErr *Error
	require.ErrorAs(t, err, &ssErr)
	assert.Equal(t, "geometry[1]", ssErr.Field)
}

func TestCanonicalize(t *testing.T) {
	entities := []struct {
		entity Entity
		kind   Kind
		want   string
	}{
		{Intersection{110, 45}, KindIntersection, "Intersection 110.000000 45.000000"},
		{Geometry{{110, 45}, {115, 50}}, KindGeometry, "Geometry 110.000000 45.000000 115.000000 50.000000"},
		{LocationReference{Point: orb.Point{110, 45}}, KindLocationReference, "110.000000 45.000000"},
		{Reference{FormOfWay: FormOfWayRoundabout, LocationReferenceIDs: [2]string{"x", "y"}}, KindReference, "Reference 4 x y"},
	}

	for _, e := range entities {
		t.Run(e.kind.String(), func(t *testing.T) {
			assert.Equal(t, e.kind, e.entity.Kind())
			got, err := Canonicalize(e.entity)
			require.NoError(t, err)
			assert.Equal(t, e.want, got)
		})
	}

	_, err := Canonicalize(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCanonicalize_Deterministic(t *testing.T) {
	line := Geometry{{-74.007568359375, 40.75239562988281}, {-74.00729370117188, 40.753089904785156}}
	first, err := Canonicalize(line)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := Canonicalize(Geometry{{-74.007568359375, 40.75239562988281}, {-74.00729370117188, 40.753089904785156}})
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := invalidInput("bearing", "value is not a finite number")
	assert.Equal(t, "ssid: bearing: value is not a finite number", err.Error())
	assert.Equal(t, "ssid: encoding failure", ErrEncodingFailure.Error())
	assert.False(t, errors.Is(err, ErrEncodingFailure))
}

func BenchmarkGeometryMessage(b *testing.B) {
	line := orb.LineString{{110, 45}, {115, 50}, {120, 55}}
	for i := 0; i < b.N; i++ {
		GeometryMessage(line)
	}
}
