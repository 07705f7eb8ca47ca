package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// Repository manages notification records. Record existence is the
// duplicate-send guard, so rows are written before dispatch.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	HasForOrder(ctx context.Context, orderID uuid.UUID, notificationType enums.NotificationType) (bool, error)
	HasForCart(ctx context.Context, cartSessionID uuid.UUID, notificationType enums.NotificationType) (bool, error)
	MarkSent(ctx context.Context, notificationID uuid.UUID, sentAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a notification repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) HasForOrder(ctx context.Context, orderID uuid.UUID, notificationType enums.NotificationType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("order_id = ? AND type = ?", orderID, notificationType.String()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) HasForCart(ctx context.Context, cartSessionID uuid.UUID, notificationType enums.NotificationType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("cart_session_id = ? AND type = ?", cartSessionID, notificationType.String()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) MarkSent(ctx context.Context, notificationID uuid.UUID, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("sent_at", sentAt).Error
}
