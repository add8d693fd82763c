package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusFromPayment(t *testing.T) {
	cases := []struct {
		gateway string
		want    OrderStatus
	}{
		{"approved", OrderStatusPaid},
		{"rejected", OrderStatusPaymentRejected},
		{"cancelled", OrderStatusPaymentCancelled},
		{"pending", OrderStatusPendingPayment},
		{"in_process", OrderStatusPaymentProcessing},
		{"refunded", OrderStatusRefunded},
		{"charged_back", OrderStatus("Payment charged_back")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OrderStatusFromPayment(tc.gateway), tc.gateway)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCanceled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())

	assert.False(t, OrderStatusPendingPayment.IsTerminal())
	assert.False(t, OrderStatusPaid.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusPartial.IsTerminal())
	// provider statuses this build does not know stay syncable
	assert.False(t, OrderStatus("Awaiting").IsTerminal())
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, UserRoleAdmin, role)

	_, err = ParseUserRole("root")
	assert.Error(t, err)
}
