package carts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
)

// Repository manages cart sessions for the staged cleanup sequence.
// Renewed activity resets is_abandoned elsewhere; the predicates here
// only ever look at sessions the customer has left idle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error)
	FindAbandoned(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error)
	FindForDeactivation(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error)
	MarkAbandoned(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error)
	Deactivate(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindIdleActive returns non-empty active sessions without activity
// since idleSince that have not yet been marked abandoned.
func (r *repository) FindIdleActive(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	var sessions []models.CartSession
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_abandoned = ? AND item_count > 0 AND last_activity <= ?", true, false, idleSince).
		Order("last_activity ASC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindAbandoned returns already-abandoned sessions still idle past
// idleSince, due for the follow-up reminder.
func (r *repository) FindAbandoned(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	var sessions []models.CartSession
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_abandoned = ? AND item_count > 0 AND last_activity <= ?", true, true, idleSince).
		Order("last_activity ASC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindForDeactivation returns active sessions idle past the final
// cutoff, abandoned or not.
func (r *repository) FindForDeactivation(ctx context.Context, idleSince time.Time, limit int) ([]models.CartSession, error) {
	var sessions []models.CartSession
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND last_activity <= ?", true, idleSince).
		Order("last_activity ASC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) MarkAbandoned(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartSession{}).
		Where("id = ? AND is_active = ? AND is_abandoned = ?", sessionID, true, false).
		Updates(map[string]any{
			"is_abandoned": true,
			"abandoned_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Deactivate(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
