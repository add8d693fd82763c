package enums

import "fmt"

// OrderStatus tracks the lifecycle of a reseller order. The set is open on
// purpose: once an order is submitted the fulfillment provider is
// authoritative and may report statuses this build does not know about yet.
type OrderStatus string

const (
	OrderStatusPendingPayment    OrderStatus = "Pending Payment"
	OrderStatusPaid              OrderStatus = "Paid"
	OrderStatusPaymentRejected   OrderStatus = "Payment Rejected"
	OrderStatusPaymentCancelled  OrderStatus = "Payment Cancelled"
	OrderStatusPaymentProcessing OrderStatus = "Payment Processing"
	OrderStatusRefunded          OrderStatus = "Refunded"
	OrderStatusProcessing        OrderStatus = "Processing"
	OrderStatusInProgress        OrderStatus = "In progress"
	OrderStatusCompleted         OrderStatus = "Completed"
	OrderStatusPartial           OrderStatus = "Partial"
	OrderStatusCanceled          OrderStatus = "Canceled"
)

var terminalOrderStatuses = []OrderStatus{
	OrderStatusCompleted,
	OrderStatusCanceled,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the order no longer needs status synchronization.
func (s OrderStatus) IsTerminal() bool {
	for _, candidate := range terminalOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TerminalOrderStatuses returns the statuses excluded from status sync.
func TerminalOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(terminalOrderStatuses))
	copy(out, terminalOrderStatuses)
	return out
}

// OrderStatusFromPayment maps a payment-gateway status onto an order status.
// Unknown gateway values pass through as "Payment <value>" so a new gateway
// state never drops a notification.
func OrderStatusFromPayment(gatewayStatus string) OrderStatus {
	switch gatewayStatus {
	case "approved":
		return OrderStatusPaid
	case "rejected":
		return OrderStatusPaymentRejected
	case "cancelled":
		return OrderStatusPaymentCancelled
	case "pending":
		return OrderStatusPendingPayment
	case "in_process":
		return OrderStatusPaymentProcessing
	case "refunded":
		return OrderStatusRefunded
	default:
		return OrderStatus(fmt.Sprintf("Payment %s", gatewayStatus))
	}
}
