package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Wallet holds a customer's prepaid balance. The balance changes only
// through paired WalletTransaction rows written in the same
// transaction.
type Wallet struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID       `gorm:"column:customer_id;type:uuid;uniqueIndex;not null"`
	Balance     decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	CreditLimit decimal.Decimal `gorm:"column:credit_limit;type:numeric(14,2);not null;default:0"`
	Currency    enums.Currency  `gorm:"column:currency;type:text;not null;default:'IRR'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// WalletTransaction is an append-only ledger entry. BalanceBefore and
// BalanceAfter are captured at write time so the ledger replays without
// recomputation.
type WalletTransaction struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID      uuid.UUID                   `gorm:"column:wallet_id;type:uuid;not null;index"`
	CustomerID    uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	Type          enums.WalletTransactionType `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal             `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency      enums.Currency              `gorm:"column:currency;type:text;not null"`
	BalanceBefore decimal.Decimal             `gorm:"column:balance_before;type:numeric(14,2);not null"`
	BalanceAfter  decimal.Decimal             `gorm:"column:balance_after;type:numeric(14,2);not null"`
	Description   string                      `gorm:"column:description;type:text;not null"`
	ReferenceType enums.WalletReferenceType   `gorm:"column:reference_type;type:text;not null"`
	ReferenceID   string                      `gorm:"column:reference_id;not null;index"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

// WalletRechargeRequest is an admin-approved top-up. Processing a
// pending request credits the wallet and marks the request completed.
type WalletRechargeRequest struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestNumber string               `gorm:"column:request_number;uniqueIndex;not null"`
	CustomerID    uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	Amount        decimal.Decimal      `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency      enums.Currency       `gorm:"column:currency;type:text;not null;default:'IRR'"`
	Status        enums.RechargeStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AdminNotes    *string              `gorm:"column:admin_notes"`
	ApprovedBy    *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovedAt    *time.Time           `gorm:"column:approved_at"`
	ProcessedAt   *time.Time           `gorm:"column:processed_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
