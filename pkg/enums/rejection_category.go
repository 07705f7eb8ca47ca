package enums

import "fmt"

// RejectionCategory classifies why a financial reviewer rejected a
// payment receipt.
type RejectionCategory string

const (
	RejectionInvalidAmount  RejectionCategory = "invalid_amount"
	RejectionInvalidReceipt RejectionCategory = "invalid_receipt"
	RejectionExpiredReceipt RejectionCategory = "expired_receipt"
	RejectionOther          RejectionCategory = "other"
)

var validRejectionCategories = []RejectionCategory{
	RejectionInvalidAmount,
	RejectionInvalidReceipt,
	RejectionExpiredReceipt,
	RejectionOther,
}

// String implements fmt.Stringer.
func (r RejectionCategory) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RejectionCategory.
func (r RejectionCategory) IsValid() bool {
	for _, candidate := range validRejectionCategories {
		if candidate == r {
			return true
		}
	}
	return false
}

// Message is the reviewer-facing explanation recorded on the order's
// audit trail when a receipt is rejected.
func (r RejectionCategory) Message() string {
	switch r {
	case RejectionInvalidAmount:
		return "receipt amount does not match the order total"
	case RejectionInvalidReceipt:
		return "receipt document is invalid or unreadable"
	case RejectionExpiredReceipt:
		return "receipt is dated outside the accepted window"
	case RejectionOther:
		return "receipt rejected by financial review"
	}
	return "receipt rejected by financial review"
}

// ParseRejectionCategory converts raw input into a RejectionCategory.
func ParseRejectionCategory(value string) (RejectionCategory, error) {
	for _, candidate := range validRejectionCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rejection category %q", value)
}
