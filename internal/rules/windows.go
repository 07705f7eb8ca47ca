package rules

import (
	"time"

	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Windows is the single lookup table for payment grace windows. Every
// pass that needs an expiry check consumes it; no pass computes its own
// window arithmetic.
type Windows struct {
	ExtendedWindow time.Duration
	ExtendedBuffer time.Duration
	StandardWindow time.Duration
	StandardBuffer time.Duration
	UrgentWindow   time.Duration
	AutoRefundAge  time.Duration
}

// DefaultWindows returns the production windows: 72h+6h for
// bank_transfer_grace, 24h+1h for every other deferred method.
func DefaultWindows() Windows {
	return Windows{
		ExtendedWindow: 72 * time.Hour,
		ExtendedBuffer: 6 * time.Hour,
		StandardWindow: 24 * time.Hour,
		StandardBuffer: time.Hour,
		UrgentWindow:   24 * time.Hour,
		AutoRefundAge:  10 * time.Minute,
	}
}

// WindowsFromConfig builds the lookup table from environment config.
func WindowsFromConfig(cfg config.GraceConfig) Windows {
	w := DefaultWindows()
	if cfg.ExtendedWindow > 0 {
		w.ExtendedWindow = cfg.ExtendedWindow
	}
	if cfg.ExtendedBuffer > 0 {
		w.ExtendedBuffer = cfg.ExtendedBuffer
	}
	if cfg.StandardWindow > 0 {
		w.StandardWindow = cfg.StandardWindow
	}
	if cfg.StandardBuffer > 0 {
		w.StandardBuffer = cfg.StandardBuffer
	}
	if cfg.UrgentWindow > 0 {
		w.UrgentWindow = cfg.UrgentWindow
	}
	if cfg.AutoRefundAge > 0 {
		w.AutoRefundAge = cfg.AutoRefundAge
	}
	return w
}

// GraceWindow returns the (window, buffer) pair for the payment method.
func (w Windows) GraceWindow(method enums.PaymentMethod) (time.Duration, time.Duration) {
	if method == enums.PaymentMethodBankTransferGrace {
		return w.ExtendedWindow, w.ExtendedBuffer
	}
	return w.StandardWindow, w.StandardBuffer
}

// Deadline is the instant after which an unreceipted order is eligible
// for archival: creation time plus window plus buffer.
func (w Windows) Deadline(createdAt time.Time, method enums.PaymentMethod) time.Time {
	window, buffer := w.GraceWindow(method)
	return createdAt.Add(window + buffer)
}

// InUrgentWindow reports whether now falls inside the final stretch
// before the deadline, when the one urgent reminder goes out.
func (w Windows) InUrgentWindow(createdAt time.Time, method enums.PaymentMethod, now time.Time) bool {
	deadline := w.Deadline(createdAt, method)
	if !now.Before(deadline) {
		return false
	}
	return !now.Before(deadline.Add(-w.UrgentWindow))
}

// RemainingGrace returns how long the order still has before its
// deadline, floored at zero.
func (w Windows) RemainingGrace(createdAt time.Time, method enums.PaymentMethod, now time.Time) time.Duration {
	remaining := w.Deadline(createdAt, method).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
