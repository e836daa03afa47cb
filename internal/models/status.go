package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// legalTransitions is the full picture of the order lifecycle. Statuses with
// an empty set are terminal.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
	OrderStatusReturned:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := legalTransitions[s]
	return ok && len(next) == 0
}

// IsCancellable reports whether a customer cancellation is still possible.
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransition reports whether from may move to to. A transition to the
// same status is allowed and treated by callers as a no-op.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
