package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

func failedPaymentOrder(method enums.PaymentMethod, walletAmount int64) models.Order {
	order := graceOrder(enums.OrderStatusPending, method, 30*time.Minute, false)
	order.PaymentStatus = enums.PaymentStatusUnpaid
	order.WalletAmount = decimal.NewFromInt(walletAmount)
	return order
}

func newAutoRefundPass(t *testing.T, ordersRepo *fakeOrders, walletSvc *fakeWallet, notifySvc *fakeNotify) Pass {
	t.Helper()
	pass, err := NewAutoRefundPass(AutoRefundPassParams{
		Logger:    testLogger(),
		DB:        fakeTx{},
		Orders:    ordersRepo,
		Inventory: &fakeInventory{},
		Wallet:    walletSvc,
		Notify:    notifySvc,
		Windows:   rules.DefaultWindows(),
		Now:       func() time.Time { return testClock },
	})
	if err != nil {
		t.Fatalf("construct pass: %v", err)
	}
	return pass
}

func TestAutoRefund_WalletPartialRefundsAndCancels(t *testing.T) {
	order := failedPaymentOrder(enums.PaymentMethodWalletPartial, 60000)
	ordersRepo := &fakeOrders{failedPay: []models.Order{order}}
	walletSvc := &fakeWallet{}
	notifySvc := &fakeNotify{}

	pass := newAutoRefundPass(t, ordersRepo, walletSvc, notifySvc)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(walletSvc.credits) != 1 {
		t.Fatalf("expected one wallet credit, got %d", len(walletSvc.credits))
	}
	credit := walletSvc.credits[0]
	if !credit.Amount.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("credit amount = %s", credit.Amount)
	}
	if credit.ReferenceType != enums.WalletReferenceAutoRefund {
		t.Fatalf("reference type = %s", credit.ReferenceType)
	}
	if credit.ReferenceID != order.OrderNumber {
		t.Fatalf("reference id = %s", credit.ReferenceID)
	}

	update := ordersRepo.updateFor(order.ID)
	if update == nil || update.updates["status"] != enums.OrderStatusCancelled.String() {
		t.Fatalf("update = %+v", update)
	}
	if update.updates["payment_status"] != enums.PaymentStatusCancelled.String() {
		t.Fatalf("payment status = %v", update.updates["payment_status"])
	}
	if len(notifySvc.orderSends) != 1 || notifySvc.orderSends[0].Type != enums.NotificationTypeOrderCancelled {
		t.Fatalf("notification = %+v", notifySvc.orderSends)
	}
}

func TestAutoRefund_OnlineGatewayCancelsWithoutCredit(t *testing.T) {
	order := failedPaymentOrder(enums.PaymentMethodOnlineGateway, 0)
	ordersRepo := &fakeOrders{failedPay: []models.Order{order}}
	walletSvc := &fakeWallet{}
	notifySvc := &fakeNotify{}

	pass := newAutoRefundPass(t, ordersRepo, walletSvc, notifySvc)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(walletSvc.credits) != 0 {
		t.Fatal("gateway-only order must not credit the wallet")
	}
	update := ordersRepo.updateFor(order.ID)
	if update == nil || update.updates["status"] != enums.OrderStatusCancelled.String() {
		t.Fatalf("update = %+v", update)
	}
}

func TestAutoRefund_CreditFailureLeavesOrderForNextTick(t *testing.T) {
	order := failedPaymentOrder(enums.PaymentMethodWalletPartial, 60000)
	ordersRepo := &fakeOrders{failedPay: []models.Order{order}}
	walletSvc := &fakeWallet{err: errors.New("wallet row locked")}
	notifySvc := &fakeNotify{}

	pass := newAutoRefundPass(t, ordersRepo, walletSvc, notifySvc)
	if err := pass.Run(context.Background()); err == nil {
		t.Fatal("expected refund failure to surface")
	}

	if ordersRepo.updateFor(order.ID) != nil {
		t.Fatal("failed refund must not cancel the order")
	}
	if len(notifySvc.orderSends) != 0 {
		t.Fatal("failed refund must not notify")
	}
}
