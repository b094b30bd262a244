package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPoint struct {
	lat, lon float64
	ok       bool
}

func (p testPoint) Coordinates() (float64, float64, bool) { return p.lat, p.lon, p.ok }

func TestDistanceKmZero(t *testing.T) {
	assert.Zero(t, DistanceKm(48.8566, 2.3522, 48.8566, 2.3522))
}

func TestDistanceKmSymmetric(t *testing.T) {
	d1 := DistanceKm(48.8566, 2.3522, 45.7640, 4.8357)
	d2 := DistanceKm(45.7640, 4.8357, 48.8566, 2.3522)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKmKnown(t *testing.T) {
	// Paris -> Lyon is about 392 km as the crow flies.
	d := DistanceKm(48.8566, 2.3522, 45.7640, 4.8357)
	assert.InDelta(t, 392, d, 5)
}

func TestWithinRadius(t *testing.T) {
	origin := testPoint{lat: 48.8566, lon: 2.3522, ok: true}
	near := testPoint{lat: 48.8700, lon: 2.3500, ok: true}   // ~1.5 km
	far := testPoint{lat: 49.2583, lon: 4.0317, ok: true}    // Reims, ~130 km
	unknown := testPoint{ok: false}

	got := WithinRadius(origin.lat, origin.lon, 10, []testPoint{near, far, unknown})
	require.Len(t, got, 1)
	assert.Equal(t, near, got[0])
}

func TestWithinRadiusDefault(t *testing.T) {
	near := testPoint{lat: 48.8700, lon: 2.3500, ok: true}
	got := WithinRadius(48.8566, 2.3522, 0, []testPoint{near})
	assert.Len(t, got, 1)
}
