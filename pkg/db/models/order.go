package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Order is the unit the reconciliation passes advance through the
// lifecycle. Notes is an append-only audit log; every automated or
// manual transition appends a line.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;uniqueIndex;not null"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'IRR'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`

	// ReceiptID references the uploaded payment document; ReceiptAmount
	// is the figure the customer declared on upload.
	ReceiptID     *uuid.UUID       `gorm:"column:receipt_id;type:uuid"`
	ReceiptAmount *decimal.Decimal `gorm:"column:receipt_amount;type:numeric(14,2)"`

	// WalletAmount is the portion settled from the wallet at checkout.
	// It is what the auto-refund pass returns when a hybrid payment
	// never completes.
	WalletAmount decimal.Decimal `gorm:"column:wallet_amount;type:numeric(14,2);not null;default:0"`

	Locked     bool       `gorm:"column:locked;not null;default:false"`
	ReviewerID *uuid.UUID `gorm:"column:reviewer_id;type:uuid"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at"`
	Notes      *string    `gorm:"column:notes"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
