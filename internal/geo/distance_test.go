package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_ZeroForIdenticalPoints(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(-23.5505, -46.6333, -23.5505, -46.6333), 1e-9)
}

func TestDistanceKm_EquatorDegree(t *testing.T) {
	// One degree of longitude at the equator is ~111.19 km.
	d := DistanceKm(0, 0, 0, 1)
	assert.InDelta(t, 111.19, d, 0.1)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(-23.5505, -46.6333, -23.5598, -46.6890)
	d2 := DistanceKm(-23.5598, -46.6890, -23.5505, -46.6333)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKm_SaoPauloNeighborhoods(t *testing.T) {
	// Centro to Vila Madalena is roughly 5.8 km.
	d := DistanceKm(-23.5505, -46.6333, -23.5598, -46.6890)
	assert.Greater(t, d, 5.0)
	assert.Less(t, d, 7.0)
}

func TestWithinRadius_StrictBoundary(t *testing.T) {
	// ~5.004 km north-east of the origin along the equator.
	d := DistanceKm(0, 0, 0, 0.045)
	assert.Greater(t, d, 5.0)

	// Just inside vs. outside the 5 km radius.
	assert.False(t, WithinRadius(0, 0, 0, 0.045, 5))
	assert.True(t, WithinRadius(0, 0, 0, 0.0449, 5))

	// A point exactly at the radius boundary is excluded.
	assert.False(t, WithinRadius(0, 0, 0, 0.045, d))
}
