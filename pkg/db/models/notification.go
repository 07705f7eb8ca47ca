package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Notification records every message sent to a customer. Existence of a
// row with the same (order|cart, type) pair is the duplicate-send
// guard.
type Notification struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	CartSessionID *uuid.UUID                `gorm:"column:cart_session_id;type:uuid;index"`
	CustomerID    uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null;index"`
	Type          enums.NotificationType    `gorm:"column:type;type:text;not null"`
	Channel       enums.NotificationChannel `gorm:"column:channel;type:text;not null"`
	Title         string                    `gorm:"column:title;type:text;not null"`
	Message       string                    `gorm:"column:message;type:text;not null"`
	SentAt        *time.Time                `gorm:"column:sent_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
