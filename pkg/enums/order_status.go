package enums

import "fmt"

// OrderStatus is the closed set of order lifecycle states. Terminal
// states never transition again.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusPaymentGracePeriod OrderStatus = "payment_grace_period"
	OrderStatusFinancialReviewing OrderStatus = "financial_reviewing"
	OrderStatusWarehousePending   OrderStatus = "warehouse_pending"
	OrderStatusWarehouseReady     OrderStatus = "warehouse_ready"
	OrderStatusFailedArchived     OrderStatus = "failed_archived"
	OrderStatusCancelled          OrderStatus = "cancelled"
	OrderStatusDeleted            OrderStatus = "deleted"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentGracePeriod,
	OrderStatusFinancialReviewing,
	OrderStatusWarehousePending,
	OrderStatusWarehouseReady,
	OrderStatusFailedArchived,
	OrderStatusCancelled,
	OrderStatusDeleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusWarehouseReady, OrderStatusFailedArchived, OrderStatusCancelled, OrderStatusDeleted:
		return true
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
