package enums

import "fmt"

// PaymentMethod identifies how a customer chose to settle an order.
type PaymentMethod string

const (
	PaymentMethodOnlineGateway     PaymentMethod = "online_gateway"
	PaymentMethodBankTransfer      PaymentMethod = "bank_transfer"
	PaymentMethodBankTransferGrace PaymentMethod = "bank_transfer_grace"
	PaymentMethodWallet            PaymentMethod = "wallet"
	PaymentMethodWalletPartial     PaymentMethod = "wallet_partial"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodOnlineGateway,
	PaymentMethodBankTransfer,
	PaymentMethodBankTransferGrace,
	PaymentMethodWallet,
	PaymentMethodWalletPartial,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsDeferred reports whether settlement happens after checkout, which
// entitles the order to a payment grace window.
func (m PaymentMethod) IsDeferred() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodBankTransferGrace:
		return true
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
