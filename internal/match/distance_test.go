package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct {
		a, b Coordinate
	}{
		{Coordinate{Lat: 12.933, Lon: 77.610}, Coordinate{Lat: 12.934, Lon: 77.611}},
		{Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: -45.0, Lon: 120.5}},
		{Coordinate{Lat: 89.9, Lon: -179.9}, Coordinate{Lat: -89.9, Lon: 179.9}},
	}
	for _, p := range pairs {
		ab := Distance(p.a, p.b)
		ba := Distance(p.b, p.a)
		require.InEpsilon(t, ab, ba, 1e-9, "distance must be symmetric for %+v", p)
	}
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	points := []Coordinate{
		{Lat: 12.933, Lon: 77.610},
		{Lat: 0, Lon: 0},
		{Lat: -90, Lon: 180},
	}
	for _, p := range points {
		require.Zero(t, Distance(p, p))
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// Two points a thousandth of a degree apart in Bangalore: about 155 m.
	a := Coordinate{Lat: 12.933, Lon: 77.610}
	b := Coordinate{Lat: 12.934, Lon: 77.611}
	d := Distance(a, b)
	require.Greater(t, d, 0.1)
	require.Less(t, d, 0.2)

	// One degree of latitude along a meridian is about 111.2 km.
	eq := Distance(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 1, Lon: 0})
	require.InDelta(t, 111.2, eq, 0.2)
}

func TestDistanceNeverNegative(t *testing.T) {
	a := Coordinate{Lat: -33.857, Lon: 151.215}
	b := Coordinate{Lat: 40.689, Lon: -74.044}
	require.GreaterOrEqual(t, Distance(a, b), 0.0)
	require.False(t, math.IsNaN(Distance(a, b)))
}
