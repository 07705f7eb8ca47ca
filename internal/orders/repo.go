package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds an order store repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, now: r.now}
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error) {
	var items []models.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindWithReceiptPreReview(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", preReviewStatuses()).
		Where("receipt_id IS NOT NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindExpiredWithoutReceipt(ctx context.Context, cutoffs MethodCutoffs, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", preReviewStatuses()).
		Where("receipt_id IS NULL").
		Where(
			r.db.Where("payment_method = ? AND created_at <= ?", enums.PaymentMethodBankTransferGrace, cutoffs.Extended).
				Or("payment_method = ? AND created_at <= ?", enums.PaymentMethodBankTransfer, cutoffs.Standard),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindUrgentReminderCandidates(ctx context.Context, entered, deadline MethodCutoffs, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", preReviewStatuses()).
		Where("receipt_id IS NULL").
		Where(
			r.db.Where("payment_method = ? AND created_at <= ? AND created_at > ?",
				enums.PaymentMethodBankTransferGrace, entered.Extended, deadline.Extended).
				Or("payment_method = ? AND created_at <= ? AND created_at > ?",
					enums.PaymentMethodBankTransfer, entered.Standard, deadline.Standard),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindFailedPayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("payment_status IN ?", []string{
			enums.PaymentStatusUnpaid.String(),
			enums.PaymentStatusPending.String(),
		}).
		Where("payment_method IN ?", []string{
			enums.PaymentMethodOnlineGateway.String(),
			enums.PaymentMethodWalletPartial.String(),
		}).
		Where("created_at <= ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindHardExpired(ctx context.Context, cutoffs MethodCutoffs, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", preReviewStatuses()).
		Where("payment_status <> ?", enums.PaymentStatusPaid).
		Where(
			r.db.Where("payment_method = ? AND created_at <= ?", enums.PaymentMethodBankTransferGrace, cutoffs.Extended).
				Or("payment_method <> ? AND created_at <= ?", enums.PaymentMethodBankTransferGrace, cutoffs.Standard),
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindStuckPaid(ctx context.Context, createdBefore, updatedBefore time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Where("payment_method IN ?", []string{
			enums.PaymentMethodWallet.String(),
			enums.PaymentMethodWalletPartial.String(),
			enums.PaymentMethodOnlineGateway.String(),
		}).
		Where("created_at <= ?", createdBefore).
		Where("updated_at <= ?", updatedBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListPendingReview(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusFinancialReviewing).
		Order("updated_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatusGated(ctx context.Context, orderID uuid.UUID, expectedStatus enums.OrderStatus, updates map[string]any, note string) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	if note != "" {
		stamped := fmt.Sprintf("[%s] %s\n", r.now().UTC().Format(time.RFC3339), note)
		updates["notes"] = gorm.Expr("COALESCE(notes, '') || ?", stamped)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Where("status = ?", expectedStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteLineItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItem{}).Error
}

func preReviewStatuses() []string {
	return []string{
		enums.OrderStatusPending.String(),
		enums.OrderStatusPaymentGracePeriod.String(),
	}
}
