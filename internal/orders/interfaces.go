package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

// MethodCutoffs carries the per-method creation-time cutoffs the
// expiry queries filter on. Extended applies to bank_transfer_grace,
// Standard to every other deferred method.
type MethodCutoffs struct {
	Extended time.Time
	Standard time.Time
}

// Repository defines persistence operations over the order store. The
// reconciliation passes and the review service are its only callers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)

	// Candidate queries. Each returns a disjoint set for its pass; the
	// gated status write re-validates inside the transaction, so stale
	// candidates fall out harmlessly.
	FindWithReceiptPreReview(ctx context.Context, limit int) ([]models.Order, error)
	FindExpiredWithoutReceipt(ctx context.Context, cutoffs MethodCutoffs, limit int) ([]models.Order, error)
	FindUrgentReminderCandidates(ctx context.Context, entered, deadline MethodCutoffs, limit int) ([]models.Order, error)
	FindFailedPayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	FindHardExpired(ctx context.Context, cutoffs MethodCutoffs, limit int) ([]models.Order, error)
	FindStuckPaid(ctx context.Context, createdBefore, updatedBefore time.Time, limit int) ([]models.Order, error)
	ListPendingReview(ctx context.Context) ([]models.Order, error)

	// UpdateStatusGated writes updates plus the audit note only while
	// the order still holds expectedStatus. It reports whether the
	// write won; a lost write means another pass already moved the
	// order.
	UpdateStatusGated(ctx context.Context, orderID uuid.UUID, expectedStatus enums.OrderStatus, updates map[string]any, note string) (bool, error)

	DeleteLineItems(ctx context.Context, orderID uuid.UUID) error
}
