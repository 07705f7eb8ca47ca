package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartSession is a customer's live cart. At most one active session per
// customer; renewed activity clears IsAbandoned and restarts the
// cleanup sequence.
type CartSession struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	ItemCount    int             `gorm:"column:item_count;not null;default:0"`
	TotalValue   decimal.Decimal `gorm:"column:total_value;type:numeric(14,2);not null;default:0"`
	LastActivity time.Time       `gorm:"column:last_activity;not null;index"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	IsAbandoned  bool            `gorm:"column:is_abandoned;not null;default:false"`
	AbandonedAt  *time.Time      `gorm:"column:abandoned_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
