package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink/backend/internal/geo"
)

func ptr(f float64) *float64 { return &f }

func TestDistinctListingOwners(t *testing.T) {
	listings := []Listing{
		{ID: "l1", FarmerID: "f1"},
		{ID: "l2", FarmerID: "f2"},
		{ID: "l3", FarmerID: "f1"},
	}
	assert.Equal(t, []string{"f1", "f2"}, DistinctListingOwners(listings))
	assert.Empty(t, DistinctListingOwners(nil))
}

// A demand for tomatoes with a 10 km radius reaches exactly the farmers
// whose listings are in range; a listing 50 km away stays out, and a
// listing without coordinates never matches.
func TestDemandBroadcastTargets(t *testing.T) {
	// demand at Paris city hall
	lat, lon := 48.8566, 2.3522

	listings := []Listing{
		{ID: "near", FarmerID: "F", Name: "tomates", Latitude: ptr(48.8800), Longitude: ptr(2.3600)},   // ~2.7 km
		{ID: "far", FarmerID: "G", Name: "tomates", Latitude: ptr(48.4000), Longitude: ptr(2.7000)},    // ~50 km
		{ID: "nowhere", FarmerID: "H", Name: "tomates"},
	}

	matched := geo.WithinRadius(lat, lon, 10, listings)
	require.Len(t, matched, 1)
	assert.Equal(t, "near", matched[0].ID)

	farmers := DistinctListingOwners(matched)
	assert.Equal(t, []string{"F"}, farmers)
}
