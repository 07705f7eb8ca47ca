package enums

import "fmt"

// WalletTransactionType distinguishes ledger entries that raise a wallet
// balance from those that lower it.
type WalletTransactionType string

const (
	WalletTransactionCredit WalletTransactionType = "credit"
	WalletTransactionDebit  WalletTransactionType = "debit"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionCredit,
	WalletTransactionDebit,
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// WalletReferenceType names the business event a wallet transaction
// settles against.
type WalletReferenceType string

const (
	WalletReferenceOverpaymentRefund WalletReferenceType = "overpayment_refund"
	WalletReferenceAutoRefund        WalletReferenceType = "auto_refund"
	WalletReferenceRechargeRequest   WalletReferenceType = "recharge_request"
	WalletReferenceOrderPayment      WalletReferenceType = "order_payment"
)

var validWalletReferenceTypes = []WalletReferenceType{
	WalletReferenceOverpaymentRefund,
	WalletReferenceAutoRefund,
	WalletReferenceRechargeRequest,
	WalletReferenceOrderPayment,
}

// String implements fmt.Stringer.
func (r WalletReferenceType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known WalletReferenceType.
func (r WalletReferenceType) IsValid() bool {
	for _, candidate := range validWalletReferenceTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// RechargeStatus tracks the lifecycle of a wallet recharge request.
type RechargeStatus string

const (
	RechargeStatusPending   RechargeStatus = "pending"
	RechargeStatusApproved  RechargeStatus = "approved"
	RechargeStatusCompleted RechargeStatus = "completed"
	RechargeStatusRejected  RechargeStatus = "rejected"
)

var validRechargeStatuses = []RechargeStatus{
	RechargeStatusPending,
	RechargeStatusApproved,
	RechargeStatusCompleted,
	RechargeStatusRejected,
}

// String implements fmt.Stringer.
func (s RechargeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RechargeStatus.
func (s RechargeStatus) IsValid() bool {
	for _, candidate := range validRechargeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRechargeStatus converts raw input into a RechargeStatus.
func ParseRechargeStatus(value string) (RechargeStatus, error) {
	for _, candidate := range validRechargeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recharge status %q", value)
}
