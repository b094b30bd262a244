package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDemandValidate(t *testing.T) {
	d := CreateDemand{ProductName: "tomates", Quantity: dec("50"), Unit: "kg"}
	require.NoError(t, d.Validate())

	assert.ErrorIs(t, CreateDemand{Quantity: dec("50")}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, CreateDemand{ProductName: "x", Quantity: dec("0")}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, CreateDemand{ProductName: "x", Quantity: dec("-1")}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, CreateDemand{ProductName: "x", Quantity: dec("1"), RadiusKm: -5}.Validate(), ErrInvalidState)
}

func TestAllocationRequestValidate(t *testing.T) {
	price := dec("500")
	a := AllocationRequest{CollectorID: "c1", ListingID: "l1", Quantity: dec("10"), UnitPrice: &price}
	require.NoError(t, a.Validate())

	assert.ErrorIs(t, AllocationRequest{ListingID: "l1", Quantity: dec("10")}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, AllocationRequest{CollectorID: "c1", ListingID: "l1"}.Validate(), ErrInvalidState)

	zero := dec("0")
	bad := AllocationRequest{CollectorID: "c1", ListingID: "l1", Quantity: dec("10"), UnitPrice: &zero}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidState)
}

func TestProposalRequestValidate(t *testing.T) {
	p := ProposalRequest{FarmerID: "f1", ListingID: "l1", Quantity: dec("5")}
	require.NoError(t, p.Validate())

	assert.ErrorIs(t, ProposalRequest{ListingID: "l1", Quantity: dec("5")}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, ProposalRequest{FarmerID: "f1", ListingID: "l1"}.Validate(), ErrInvalidState)
}
