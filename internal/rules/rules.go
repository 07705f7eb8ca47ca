// Package rules is the transition rules engine: pure decision logic
// from an order's observable state to its next status and the ordered
// side effects that accompany the move. It performs no I/O; the
// reconciliation passes and the review service execute what it decides,
// committing the status write last.
package rules

import (
	"fmt"
	"time"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Effect is a closed descriptor of a side effect a transition demands.
// Executors run effects in the order listed; notification effects are
// dispatched after the status write commits.
type Effect string

const (
	EffectLock             Effect = "lock"
	EffectUnlock           Effect = "unlock"
	EffectClearReceipt     Effect = "clear_receipt"
	EffectReleaseInventory Effect = "release_inventory"
	EffectDeleteLineItems  Effect = "delete_line_items"
	EffectWalletCredit     Effect = "wallet_credit"
	EffectNotify           Effect = "notify"
)

// Action is a manual reviewer decision, when one applies.
type Action int

const (
	ActionNone Action = iota
	ActionApprove
	ActionReject
)

// Input is everything the engine may consider. Time enters through
// Now so callers inject fake clocks in tests.
type Input struct {
	Status        enums.OrderStatus
	PaymentMethod enums.PaymentMethod
	PaymentStatus enums.PaymentStatus
	HasReceipt    bool
	HasWalletPart bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Now           time.Time

	Action         Action
	HasOverpayment bool

	// Safety-net thresholds are separate from the grace-window table.
	StuckOrderAge  time.Duration
	StaleUpdateAge time.Duration
}

// Decision is the outcome of a transition: the status pair to write and
// the effects to run before the write, plus the audit note to append.
type Decision struct {
	NextStatus        enums.OrderStatus
	NextPaymentStatus enums.PaymentStatus
	Effects           []Effect
	NotifyType        enums.NotificationType
	Note              string
}

// Decide applies the transition rules. The second return is false when
// no transition applies to the input. The status switch is exhaustive:
// adding a state without handling it here fails the default branch.
func (w Windows) Decide(in Input) (Decision, bool) {
	switch in.Status {
	case enums.OrderStatusPending, enums.OrderStatusPaymentGracePeriod:
		return w.decidePreReview(in)

	case enums.OrderStatusFinancialReviewing:
		return decideReview(in)

	case enums.OrderStatusWarehousePending,
		enums.OrderStatusWarehouseReady,
		enums.OrderStatusFailedArchived,
		enums.OrderStatusCancelled,
		enums.OrderStatusDeleted:
		// Warehouse states advance through fulfillment, not through
		// reconciliation; the rest are terminal.
		return Decision{}, false

	default:
		return Decision{}, false
	}
}

func (w Windows) decidePreReview(in Input) (Decision, bool) {
	// Receipt hand-off wins over every timing rule.
	if in.HasReceipt {
		return Decision{
			NextStatus:        enums.OrderStatusFinancialReviewing,
			NextPaymentStatus: enums.PaymentStatusReviewing,
			Effects:           []Effect{EffectLock, EffectNotify},
			NotifyType:        enums.NotificationTypeReceiptReceived,
			Note:              "receipt uploaded, handed off to financial review",
		}, true
	}

	// Stuck-order rescue: already paid but never advanced. Gated on
	// paid so it can never fire for orders still awaiting payment.
	if in.Status == enums.OrderStatusPending &&
		in.PaymentStatus == enums.PaymentStatusPaid &&
		in.StuckOrderAge > 0 && in.StaleUpdateAge > 0 &&
		in.Now.Sub(in.CreatedAt) >= in.StuckOrderAge &&
		in.Now.Sub(in.UpdatedAt) >= in.StaleUpdateAge {
		return Decision{
			NextStatus:        enums.OrderStatusWarehousePending,
			NextPaymentStatus: enums.PaymentStatusPaid,
			Effects:           nil,
			Note:              "system override: paid order stuck in pending, force-advanced to warehouse",
		}, true
	}

	// Failed immediate payments: pending past the short cutoff with a
	// gateway or hybrid method never completed settlement.
	if in.Status == enums.OrderStatusPending &&
		(in.PaymentStatus == enums.PaymentStatusUnpaid || in.PaymentStatus == enums.PaymentStatusPending) &&
		(in.PaymentMethod == enums.PaymentMethodOnlineGateway || in.PaymentMethod == enums.PaymentMethodWalletPartial) &&
		in.Now.Sub(in.CreatedAt) >= w.AutoRefundAge {
		effects := []Effect{EffectReleaseInventory}
		note := "payment attempt failed, order cancelled"
		if in.PaymentMethod == enums.PaymentMethodWalletPartial && in.HasWalletPart {
			effects = append(effects, EffectWalletCredit)
			note = "payment attempt failed, wallet portion refunded, order cancelled"
		}
		return Decision{
			NextStatus:        enums.OrderStatusCancelled,
			NextPaymentStatus: enums.PaymentStatusCancelled,
			Effects:           effects,
			NotifyType:        enums.NotificationTypeOrderCancelled,
			Note:              note,
		}, true
	}

	// Grace expiry for deferred payments.
	if in.PaymentMethod.IsDeferred() && !in.Now.Before(w.Deadline(in.CreatedAt, in.PaymentMethod)) {
		return Decision{
			NextStatus:        enums.OrderStatusFailedArchived,
			NextPaymentStatus: enums.PaymentStatusFailed,
			Effects:           []Effect{EffectReleaseInventory, EffectDeleteLineItems, EffectNotify},
			NotifyType:        enums.NotificationTypeOrderCancelled,
			Note:              "payment grace window expired without receipt, order archived",
		}, true
	}

	return Decision{}, false
}

func decideReview(in Input) (Decision, bool) {
	switch in.Action {
	case ActionApprove:
		effects := []Effect{EffectUnlock}
		if in.HasOverpayment {
			effects = append([]Effect{EffectWalletCredit}, effects...)
		}
		effects = append(effects, EffectNotify)
		return Decision{
			NextStatus:        enums.OrderStatusWarehousePending,
			NextPaymentStatus: enums.PaymentStatusPaid,
			Effects:           effects,
			NotifyType:        enums.NotificationTypeReceiptApproved,
			Note:              "receipt approved by financial review",
		}, true

	case ActionReject:
		return Decision{
			NextStatus:        enums.OrderStatusPaymentGracePeriod,
			NextPaymentStatus: enums.PaymentStatusPending,
			Effects:           []Effect{EffectClearReceipt, EffectUnlock, EffectNotify},
			NotifyType:        enums.NotificationTypeReceiptRejected,
			Note:              "receipt rejected by financial review, re-upload enabled",
		}, true
	}

	// Orders under review wait for a human; time never moves them.
	return Decision{}, false
}

// DecideHardExpiry is the blanket cutoff used by the expired-orders
// pass: a still-temporary order past deadline plus one extra hour is
// removed regardless of receipt activity. Narrower states only.
func (w Windows) DecideHardExpiry(in Input) (Decision, bool) {
	if in.Status != enums.OrderStatusPending && in.Status != enums.OrderStatusPaymentGracePeriod {
		return Decision{}, false
	}
	if in.PaymentStatus == enums.PaymentStatusPaid {
		return Decision{}, false
	}
	cutoff := w.Deadline(in.CreatedAt, in.PaymentMethod).Add(time.Hour)
	if in.Now.Before(cutoff) {
		return Decision{}, false
	}
	return Decision{
		NextStatus:        enums.OrderStatusDeleted,
		NextPaymentStatus: enums.PaymentStatusCancelled,
		Effects:           []Effect{EffectReleaseInventory, EffectDeleteLineItems},
		Note:              fmt.Sprintf("order removed by expiry cleanup after %s hard cutoff", cutoff.Sub(in.CreatedAt)),
	}, true
}
