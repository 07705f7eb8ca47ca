package recon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

func newExpiredOrdersPass(t *testing.T, ordersRepo *fakeOrders, inv *fakeInventory) Pass {
	t.Helper()
	pass, err := NewExpiredOrdersPass(ExpiredOrdersPassParams{
		Logger:    testLogger(),
		DB:        fakeTx{},
		Orders:    ordersRepo,
		Inventory: inv,
		Wallet:    &fakeWallet{},
		Windows:   rules.DefaultWindows(),
		SafetyNet: config.SafetyNetConfig{
			StuckOrderAge:  24 * time.Hour,
			StaleUpdateAge: 12 * time.Hour,
		},
		Now: func() time.Time { return testClock },
	})
	if err != nil {
		t.Fatalf("construct pass: %v", err)
	}
	return pass
}

func TestExpiredOrders_HardCutoffRemovesOrder(t *testing.T) {
	order := graceOrder(enums.OrderStatusPaymentGracePeriod, enums.PaymentMethodBankTransferGrace, 80*time.Hour, true)
	productID := uuid.New()
	ordersRepo := &fakeOrders{
		hardExpired: []models.Order{order},
		lineItems: map[uuid.UUID][]models.OrderLineItem{
			order.ID: {{ID: uuid.New(), OrderID: order.ID, ProductID: productID, Qty: 2}},
		},
	}
	inv := &fakeInventory{}

	pass := newExpiredOrdersPass(t, ordersRepo, inv)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(inv.released) != 1 || inv.released[0].qty != 2 {
		t.Fatalf("released = %+v", inv.released)
	}
	if len(ordersRepo.deleted) != 1 {
		t.Fatalf("deleted line items = %v", ordersRepo.deleted)
	}
	update := ordersRepo.updateFor(order.ID)
	if update == nil || update.updates["status"] != enums.OrderStatusDeleted.String() {
		t.Fatalf("update = %+v", update)
	}
	if update.updates["payment_status"] != enums.PaymentStatusCancelled.String() {
		t.Fatalf("payment status = %v", update.updates["payment_status"])
	}
}

func TestExpiredOrders_RescuesStuckPaidOrder(t *testing.T) {
	order := graceOrder(enums.OrderStatusPending, enums.PaymentMethodWallet, 30*time.Hour, false)
	order.PaymentStatus = enums.PaymentStatusPaid
	order.UpdatedAt = testClock.Add(-13 * time.Hour)
	ordersRepo := &fakeOrders{stuckPaid: []models.Order{order}}
	inv := &fakeInventory{}

	pass := newExpiredOrdersPass(t, ordersRepo, inv)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	update := ordersRepo.updateFor(order.ID)
	if update == nil {
		t.Fatal("expected a gated update")
	}
	if update.updates["status"] != enums.OrderStatusWarehousePending.String() {
		t.Fatalf("status = %v", update.updates["status"])
	}
	if update.updates["payment_status"] != enums.PaymentStatusPaid.String() {
		t.Fatalf("payment status = %v", update.updates["payment_status"])
	}
	if !strings.Contains(update.note, "system override") {
		t.Fatalf("note = %s", update.note)
	}
	if len(inv.released) != 0 {
		t.Fatal("rescue must not touch inventory")
	}
	if len(ordersRepo.deleted) != 0 {
		t.Fatal("rescue must keep line items")
	}
}

func TestExpiredOrders_RecentlyTouchedOrderIsSkipped(t *testing.T) {
	// The repository filter should keep this out, but the rules engine
	// re-checks both thresholds before writing.
	order := graceOrder(enums.OrderStatusPending, enums.PaymentMethodWallet, 30*time.Hour, false)
	order.PaymentStatus = enums.PaymentStatusPaid
	order.UpdatedAt = testClock.Add(-time.Hour)
	ordersRepo := &fakeOrders{stuckPaid: []models.Order{order}}

	pass := newExpiredOrdersPass(t, ordersRepo, &fakeInventory{})
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ordersRepo.updateFor(order.ID) != nil {
		t.Fatal("recently touched order must not be rescued")
	}
}
