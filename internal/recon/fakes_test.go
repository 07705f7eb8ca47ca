package recon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/carts"
	"github.com/momtazchem/commerce-backend/internal/inventory"
	"github.com/momtazchem/commerce-backend/internal/notify"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

type gatedUpdate struct {
	orderID  uuid.UUID
	expected enums.OrderStatus
	updates  map[string]any
	note     string
}

type fakeOrders struct {
	withReceipt []models.Order
	expired     []models.Order
	urgent      []models.Order
	failedPay   []models.Order
	hardExpired []models.Order
	stuckPaid   []models.Order
	lineItems   map[uuid.UUID][]models.OrderLineItem
	deleted     []uuid.UUID
	updates     []gatedUpdate
	gateLost    map[uuid.UUID]bool
	updateErr   map[uuid.UUID]error
}

func (f *fakeOrders) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrders) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrders) FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	return f.lineItems[orderID], nil
}

func (f *fakeOrders) FindWithReceiptPreReview(ctx context.Context, limit int) ([]models.Order, error) {
	return f.withReceipt, nil
}

func (f *fakeOrders) FindExpiredWithoutReceipt(ctx context.Context, cutoffs orders.MethodCutoffs, limit int) ([]models.Order, error) {
	return f.expired, nil
}

func (f *fakeOrders) FindUrgentReminderCandidates(ctx context.Context, entered, deadline orders.MethodCutoffs, limit int) ([]models.Order, error) {
	return f.urgent, nil
}

func (f *fakeOrders) FindFailedPayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	return f.failedPay, nil
}

func (f *fakeOrders) FindHardExpired(ctx context.Context, cutoffs orders.MethodCutoffs, limit int) ([]models.Order, error) {
	return f.hardExpired, nil
}

func (f *fakeOrders) FindStuckPaid(ctx context.Context, createdBefore, updatedBefore time.Time, limit int) ([]models.Order, error) {
	return f.stuckPaid, nil
}

func (f *fakeOrders) ListPendingReview(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatusGated(ctx context.Context, orderID uuid.UUID, expectedStatus enums.OrderStatus, updates map[string]any, note string) (bool, error) {
	if err := f.updateErr[orderID]; err != nil {
		return false, err
	}
	if f.gateLost[orderID] {
		return false, nil
	}
	f.updates = append(f.updates, gatedUpdate{orderID: orderID, expected: expectedStatus, updates: updates, note: note})
	return true, nil
}

func (f *fakeOrders) DeleteLineItems(ctx context.Context, orderID uuid.UUID) error {
	f.deleted = append(f.deleted, orderID)
	return nil
}

func (f *fakeOrders) updateFor(orderID uuid.UUID) *gatedUpdate {
	for i := range f.updates {
		if f.updates[i].orderID == orderID {
			return &f.updates[i]
		}
	}
	return nil
}

type releasedStock struct {
	productID uuid.UUID
	qty       int
}

type fakeInventory struct {
	released []releasedStock
}

func (f *fakeInventory) WithTx(tx *gorm.DB) inventory.Repository { return f }

func (f *fakeInventory) FindByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInventory) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	f.released = append(f.released, releasedStock{productID: productID, qty: qty})
	return nil
}

type fakeWallet struct {
	credits []wallet.MovementInput
	err     error
}

func (f *fakeWallet) Credit(ctx context.Context, tx *gorm.DB, input wallet.MovementInput) (*models.WalletTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.credits = append(f.credits, input)
	return &models.WalletTransaction{}, nil
}

func (f *fakeWallet) Debit(ctx context.Context, tx *gorm.DB, input wallet.MovementInput) (*models.WalletTransaction, error) {
	return nil, nil
}

func (f *fakeWallet) Balance(ctx context.Context, customerID uuid.UUID) (*wallet.BalanceResult, error) {
	return nil, nil
}

func (f *fakeWallet) ProcessRecharge(ctx context.Context, input wallet.ProcessRechargeInput) (*models.WalletRechargeRequest, error) {
	return nil, nil
}

type fakeNotify struct {
	orderSends []notify.OrderNotificationInput
	cartSends  []notify.CartNotificationInput
	duplicates map[string]bool
	err        error
}

func (f *fakeNotify) NotifyOrder(ctx context.Context, input notify.OrderNotificationInput) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := input.OrderID.String() + "/" + input.Type.String()
	if f.duplicates[key] {
		return false, nil
	}
	f.orderSends = append(f.orderSends, input)
	return true, nil
}

func (f *fakeNotify) NotifyCart(ctx context.Context, input notify.CartNotificationInput) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := input.CartSessionID.String() + "/" + input.Type.String()
	if f.duplicates[key] {
		return false, nil
	}
	f.cartSends = append(f.cartSends, input)
	return true, nil
}

type fakeCustomers struct {
	known map[uuid.UUID]bool
}

func (f *fakeCustomers) FindByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if !f.known[customerID] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Customer{ID: customerID, Email: "customer@example.com"}, nil
}

type fakeCarts struct {
	idle        []models.CartSession
	abandoned   []models.CartSession
	stale       []models.CartSession
	marked      []uuid.UUID
	deactivated []uuid.UUID
}

func (f *fakeCarts) WithTx(tx *gorm.DB) carts.Repository { return f }

func (f *fakeCarts) FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	return f.idle, nil
}

func (f *fakeCarts) FindAbandoned(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	return f.abandoned, nil
}

func (f *fakeCarts) FindForDeactivation(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	return f.stale, nil
}

func (f *fakeCarts) MarkAbandoned(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error) {
	f.marked = append(f.marked, sessionID)
	return true, nil
}

func (f *fakeCarts) Deactivate(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	f.deactivated = append(f.deactivated, sessionID)
	return true, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}
