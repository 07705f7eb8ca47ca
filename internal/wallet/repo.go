package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Repository manages wallet, transaction, and recharge request rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	SaveBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	FindRechargeRequest(ctx context.Context, requestID uuid.UUID) (*models.WalletRechargeRequest, error)
	MarkRechargeProcessed(ctx context.Context, requestID uuid.UUID, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) SaveBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) FindRechargeRequest(ctx context.Context, requestID uuid.UUID) (*models.WalletRechargeRequest, error) {
	var request models.WalletRechargeRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkRechargeProcessed flips a pending request to its processed state.
// The status predicate makes the write race-safe: a second processor
// sees zero rows affected and backs off.
func (r *repository) MarkRechargeProcessed(ctx context.Context, requestID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WalletRechargeRequest{}).
		Where("id = ? AND status = ?", requestID, enums.RechargeStatusPending.String()).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
