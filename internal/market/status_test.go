package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDetermineLineStatus(t *testing.T) {
	listingPrice := dec("500")
	otherPrice := dec("450")

	tests := []struct {
		name      string
		qty       string
		price     *decimal.Decimal
		available string
		want      LineStatus
	}{
		{"matching price, partial quantity", "40", &listingPrice, "100", LinePartiallyAccepted},
		{"matching price, takes remaining stock", "100", &listingPrice, "100", LineAccepted},
		{"matching price, over stock", "120", &listingPrice, "100", LineAccepted},
		{"price mismatch needs confirmation", "40", &otherPrice, "100", LinePending},
		{"nil price defaults to listing price", "40", nil, "100", LinePartiallyAccepted},
		{"nil price taking all stock", "100", nil, "100", LineAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineLineStatus(dec(tt.qty), tt.price, dec(tt.available), listingPrice)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	mk := func(statuses ...LineStatus) []Line {
		lines := make([]Line, len(statuses))
		for i, s := range statuses {
			lines[i] = Line{Status: s}
		}
		return lines
	}

	tests := []struct {
		name   string
		lines  []Line
		want   OrderStatus
		wantOK bool
	}{
		{"all accepted", mk(LineAccepted, LineAccepted), OrderAccepted, true},
		{"accepted plus partially accepted", mk(LineAccepted, LinePartiallyAccepted), OrderAccepted, true},
		{"all refused", mk(LineRefused, LineRefused), OrderCancelled, true},
		{"all delivered", mk(LineDelivered, LineDelivered), OrderDelivered, true},
		{"mixed stays unchanged", mk(LineAccepted, LineRefused), "", false},
		{"pending stays unchanged", mk(LinePending, LineAccepted), "", false},
		{"no lines", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveOrderStatus(tt.lines)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderOpen, OrderPartiallySupplied))
	assert.True(t, CanTransition(OrderPartiallySupplied, OrderComplete))
	assert.True(t, CanTransition(OrderComplete, OrderPaid))
	assert.True(t, CanTransition(OrderPaid, OrderDelivered))
	assert.True(t, CanTransition(OrderAccepted, OrderCancelled))

	// terminal states allow nothing
	assert.False(t, CanTransition(OrderDelivered, OrderCancelled))
	assert.False(t, CanTransition(OrderCancelled, OrderOpen))
	assert.False(t, CanTransition(OrderPaid, OrderOpen))

	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderOpen.Terminal())
}

func TestLineStatusTerminal(t *testing.T) {
	assert.True(t, LineRefused.Terminal())
	assert.True(t, LineDelivered.Terminal())
	assert.False(t, LinePending.Terminal())
	assert.False(t, LineAccepted.Terminal())
}

func TestActiveQuantity(t *testing.T) {
	lines := []Line{
		{Quantity: dec("60"), Status: LineAccepted},
		{Quantity: dec("30"), Status: LinePending},
		{Quantity: dec("50"), Status: LineRefused},
	}
	assert.True(t, ActiveQuantity(lines).Equal(dec("90")))
	assert.True(t, ActiveQuantity(nil).IsZero())
}

// The order cap governs proposals, not raw listing stock: a second
// proposal must hit the cap even when stock alone would allow it.
func TestPlanProposal(t *testing.T) {
	requested := dec("100")

	status, err := PlanProposal(requested, dec("0"), dec("60"))
	require.NoError(t, err)
	assert.Equal(t, OrderPartiallySupplied, status)

	// second proposal of 50 would push the total to 110
	_, err = PlanProposal(requested, dec("60"), dec("50"))
	require.ErrorIs(t, err, ErrInvalidState)

	// exactly the remainder completes the order
	status, err = PlanProposal(requested, dec("60"), dec("40"))
	require.NoError(t, err)
	assert.Equal(t, OrderComplete, status)

	// an already complete order takes nothing more
	_, err = PlanProposal(requested, dec("100"), dec("1"))
	require.ErrorIs(t, err, ErrInvalidState)
}
