package rules

import (
	"testing"
	"time"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func baseInput(status enums.OrderStatus, method enums.PaymentMethod) Input {
	return Input{
		Status:        status,
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     t0,
		UpdatedAt:     t0,
		Now:           t0,
	}
}

func TestGraceWindowLookup(t *testing.T) {
	w := DefaultWindows()

	window, buffer := w.GraceWindow(enums.PaymentMethodBankTransferGrace)
	if window != 72*time.Hour || buffer != 6*time.Hour {
		t.Fatalf("extended window = %v + %v", window, buffer)
	}

	window, buffer = w.GraceWindow(enums.PaymentMethodBankTransfer)
	if window != 24*time.Hour || buffer != time.Hour {
		t.Fatalf("standard window = %v + %v", window, buffer)
	}
}

func TestArchivalEligibilityBoundaries(t *testing.T) {
	w := DefaultWindows()

	tests := []struct {
		name     string
		method   enums.PaymentMethod
		now      time.Time
		eligible bool
	}{
		{"extended just before deadline", enums.PaymentMethodBankTransferGrace, t0.Add(77*time.Hour + 59*time.Minute), false},
		{"extended at deadline", enums.PaymentMethodBankTransferGrace, t0.Add(78 * time.Hour), true},
		{"standard just before deadline", enums.PaymentMethodBankTransfer, t0.Add(24*time.Hour + 59*time.Minute), false},
		{"standard at deadline", enums.PaymentMethodBankTransfer, t0.Add(25 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput(enums.OrderStatusPaymentGracePeriod, tt.method)
			in.Now = tt.now

			decision, ok := w.Decide(in)
			if ok != tt.eligible {
				t.Fatalf("eligible = %v, want %v", ok, tt.eligible)
			}
			if !tt.eligible {
				return
			}
			if decision.NextStatus != enums.OrderStatusFailedArchived {
				t.Fatalf("next status = %s", decision.NextStatus)
			}
			if decision.NextPaymentStatus != enums.PaymentStatusFailed {
				t.Fatalf("next payment status = %s", decision.NextPaymentStatus)
			}
			wantEffects := []Effect{EffectReleaseInventory, EffectDeleteLineItems, EffectNotify}
			assertEffects(t, decision.Effects, wantEffects)
		})
	}
}

func TestReceiptHandOffWinsOverExpiry(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusPaymentGracePeriod, enums.PaymentMethodBankTransfer)
	in.HasReceipt = true
	in.Now = t0.Add(100 * time.Hour) // far past any deadline

	decision, ok := w.Decide(in)
	if !ok {
		t.Fatal("expected a transition")
	}
	if decision.NextStatus != enums.OrderStatusFinancialReviewing {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	if decision.NextPaymentStatus != enums.PaymentStatusReviewing {
		t.Fatalf("next payment status = %s", decision.NextPaymentStatus)
	}
	if decision.NotifyType != enums.NotificationTypeReceiptReceived {
		t.Fatalf("notify type = %s", decision.NotifyType)
	}
	assertEffects(t, decision.Effects, []Effect{EffectLock, EffectNotify})
}

func TestApprovalDecision(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusFinancialReviewing, enums.PaymentMethodBankTransfer)
	in.Action = ActionApprove

	decision, ok := w.Decide(in)
	if !ok {
		t.Fatal("expected a transition")
	}
	if decision.NextStatus != enums.OrderStatusWarehousePending {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	if decision.NextPaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("next payment status = %s", decision.NextPaymentStatus)
	}
	assertEffects(t, decision.Effects, []Effect{EffectUnlock, EffectNotify})

	in.HasOverpayment = true
	decision, ok = w.Decide(in)
	if !ok {
		t.Fatal("expected a transition")
	}
	// Overpayment credit runs before the unlock so the ledger entry and
	// the status write share the transaction.
	assertEffects(t, decision.Effects, []Effect{EffectWalletCredit, EffectUnlock, EffectNotify})
}

func TestRejectionRestoresGracePeriod(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusFinancialReviewing, enums.PaymentMethodBankTransferGrace)
	in.Action = ActionReject
	in.HasReceipt = true

	decision, ok := w.Decide(in)
	if !ok {
		t.Fatal("expected a transition")
	}
	if decision.NextStatus != enums.OrderStatusPaymentGracePeriod {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	if decision.NextPaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("next payment status = %s", decision.NextPaymentStatus)
	}
	if decision.NotifyType != enums.NotificationTypeReceiptRejected {
		t.Fatalf("notify type = %s", decision.NotifyType)
	}
	assertEffects(t, decision.Effects, []Effect{EffectClearReceipt, EffectUnlock, EffectNotify})
}

func TestReviewWaitsWithoutAction(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusFinancialReviewing, enums.PaymentMethodBankTransfer)
	in.Now = t0.Add(1000 * time.Hour)

	if _, ok := w.Decide(in); ok {
		t.Fatal("orders under review must never be moved by time alone")
	}
}

func TestSafetyNetRequiresPaidAndBothThresholds(t *testing.T) {
	w := DefaultWindows()

	build := func(paymentStatus enums.PaymentStatus, age, staleness time.Duration) Input {
		in := baseInput(enums.OrderStatusPending, enums.PaymentMethodWallet)
		in.PaymentStatus = paymentStatus
		in.StuckOrderAge = 24 * time.Hour
		in.StaleUpdateAge = 12 * time.Hour
		in.Now = t0.Add(age)
		in.UpdatedAt = in.Now.Add(-staleness)
		return in
	}

	if _, ok := w.Decide(build(enums.PaymentStatusPending, 30*time.Hour, 13*time.Hour)); ok {
		t.Fatal("safety net fired for an unpaid order")
	}
	if _, ok := w.Decide(build(enums.PaymentStatusPaid, 20*time.Hour, 13*time.Hour)); ok {
		t.Fatal("safety net fired before the stuck-order age")
	}
	if _, ok := w.Decide(build(enums.PaymentStatusPaid, 30*time.Hour, 6*time.Hour)); ok {
		t.Fatal("safety net fired for a recently touched order")
	}

	decision, ok := w.Decide(build(enums.PaymentStatusPaid, 30*time.Hour, 13*time.Hour))
	if !ok {
		t.Fatal("expected the safety net to fire")
	}
	if decision.NextStatus != enums.OrderStatusWarehousePending {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	if len(decision.Effects) != 0 {
		t.Fatalf("safety net must not demand side effects, got %v", decision.Effects)
	}
	if decision.Note == "" {
		t.Fatal("safety net must leave a system-override audit note")
	}
}

func TestAutoRefundDecision(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusPending, enums.PaymentMethodWalletPartial)
	in.PaymentStatus = enums.PaymentStatusUnpaid
	in.HasWalletPart = true
	in.Now = t0.Add(11 * time.Minute)

	decision, ok := w.Decide(in)
	if !ok {
		t.Fatal("expected cancellation")
	}
	if decision.NextStatus != enums.OrderStatusCancelled {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	assertEffects(t, decision.Effects, []Effect{EffectReleaseInventory, EffectWalletCredit})

	// Pure gateway attempt: no wallet component, no ledger effect.
	in.PaymentMethod = enums.PaymentMethodOnlineGateway
	in.HasWalletPart = false
	decision, ok = w.Decide(in)
	if !ok {
		t.Fatal("expected cancellation")
	}
	assertEffects(t, decision.Effects, []Effect{EffectReleaseInventory})

	// Too young: left for the next tick.
	in.Now = t0.Add(9 * time.Minute)
	if _, ok := w.Decide(in); ok {
		t.Fatal("cancelled an order inside the settlement cutoff")
	}
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	w := DefaultWindows()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusWarehousePending,
		enums.OrderStatusWarehouseReady,
		enums.OrderStatusFailedArchived,
		enums.OrderStatusCancelled,
		enums.OrderStatusDeleted,
	} {
		in := baseInput(status, enums.PaymentMethodBankTransferGrace)
		in.Now = t0.Add(1000 * time.Hour)
		in.HasReceipt = true
		in.Action = ActionApprove
		if _, ok := w.Decide(in); ok {
			t.Fatalf("status %s transitioned", status)
		}
	}
}

func TestHardExpiryCutoff(t *testing.T) {
	w := DefaultWindows()

	in := baseInput(enums.OrderStatusPaymentGracePeriod, enums.PaymentMethodBankTransfer)
	in.HasReceipt = true // blanket cutoff ignores receipt activity

	in.Now = t0.Add(25 * time.Hour)
	if _, ok := w.DecideHardExpiry(in); ok {
		t.Fatal("hard expiry fired before deadline+1h")
	}

	in.Now = t0.Add(26 * time.Hour)
	decision, ok := w.DecideHardExpiry(in)
	if !ok {
		t.Fatal("expected hard expiry")
	}
	if decision.NextStatus != enums.OrderStatusDeleted {
		t.Fatalf("next status = %s", decision.NextStatus)
	}
	assertEffects(t, decision.Effects, []Effect{EffectReleaseInventory, EffectDeleteLineItems})

	in.PaymentStatus = enums.PaymentStatusPaid
	if _, ok := w.DecideHardExpiry(in); ok {
		t.Fatal("hard expiry must never touch paid orders")
	}
}

func TestUrgentWindow(t *testing.T) {
	w := DefaultWindows()
	method := enums.PaymentMethodBankTransferGrace

	if w.InUrgentWindow(t0, method, t0.Add(48*time.Hour)) {
		t.Fatal("urgent window open too early")
	}
	if !w.InUrgentWindow(t0, method, t0.Add(60*time.Hour)) {
		t.Fatal("urgent window should be open in the final 24h")
	}
	if w.InUrgentWindow(t0, method, t0.Add(78*time.Hour)) {
		t.Fatal("urgent window must close at the deadline")
	}
}

func TestRemainingGraceFloorsAtZero(t *testing.T) {
	w := DefaultWindows()
	if got := w.RemainingGrace(t0, enums.PaymentMethodBankTransfer, t0.Add(500*time.Hour)); got != 0 {
		t.Fatalf("remaining = %v", got)
	}
	if got := w.RemainingGrace(t0, enums.PaymentMethodBankTransfer, t0.Add(20*time.Hour)); got != 5*time.Hour {
		t.Fatalf("remaining = %v", got)
	}
}

func assertEffects(t *testing.T, got, want []Effect) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("effects = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("effects = %v, want %v", got, want)
		}
	}
}
