package market

import (
	"context"
	"fmt"
	"log"

	"github.com/agrolink/backend/internal/geo"
)

// broadcastDemand finds the available listings matching the demand within
// its radius and notifies the distinct set of owning farmers. The demand
// is already committed; nothing here may fail it.
func (s *Service) broadcastDemand(ctx context.Context, o Order) {
	if o.Latitude == nil || o.Longitude == nil {
		return
	}
	radius := float64(geo.DefaultRadiusKm)
	if o.RadiusKm != nil {
		radius = *o.RadiusKm
	}

	listings, err := s.Repo.FindListingsWithinRadius(ctx, *o.Latitude, *o.Longitude, radius, o.ProductName, "")
	if err != nil {
		log.Printf("broadcast demand %s: match listings: %v", o.ID, err)
		return
	}
	farmerIDs := DistinctListingOwners(listings)
	if len(farmerIDs) == 0 {
		return
	}

	ev := orderEvent(o.ID, "Nouvelle demande de produit",
		fmt.Sprintf("Une nouvelle demande de %s a été créée près de chez vous", o.ProductName))
	if err := s.Notify.NotifyMany(ctx, farmerIDs, ev); err != nil {
		log.Printf("broadcast demand %s: notify %d farmer(s): %v", o.ID, len(farmerIDs), err)
		return
	}
	log.Printf("demand %s broadcast to %d farmer(s)", o.ID, len(farmerIDs))
}

// DistinctListingOwners returns the unique farmer ids behind a set of
// listings, in first-seen order.
func DistinctListingOwners(listings []Listing) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range listings {
		if !seen[l.FarmerID] {
			seen[l.FarmerID] = true
			out = append(out, l.FarmerID)
		}
	}
	return out
}
