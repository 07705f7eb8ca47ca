package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/notify"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the financial review surface. Approvals and rejections are
// manual actions; the timing-driven transitions live in the
// reconciliation passes.
type Service interface {
	Approve(ctx context.Context, input ApproveInput) (*Confirmation, error)
	Reject(ctx context.Context, input RejectInput) (*Confirmation, error)
	ListPending(ctx context.Context) ([]models.Order, error)
}

// ApproveInput confirms a payment receipt. OverpaidAmount, when
// positive, is credited back to the customer's wallet.
type ApproveInput struct {
	OrderID        uuid.UUID
	ReviewerID     uuid.UUID
	Notes          string
	OverpaidAmount decimal.Decimal
}

// RejectInput returns an order to its grace period.
type RejectInput struct {
	OrderID    uuid.UUID
	ReviewerID uuid.UUID
	Reason     string
	Category   enums.RejectionCategory
}

// Confirmation reports the outcome of a review action.
type Confirmation struct {
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	CreditedAmount decimal.Decimal `json:"credited_amount"`
}

type service struct {
	orders  orders.Repository
	wallet  wallet.Service
	notify  notify.Service
	windows rules.Windows
	tx      txRunner
	log     *logger.Logger
	now     func() time.Time
}

// Params collects review service dependencies.
type Params struct {
	Orders  orders.Repository
	Wallet  wallet.Service
	Notify  notify.Service
	Windows rules.Windows
	Tx      txRunner
	Logger  *logger.Logger
	Now     func() time.Time
}

// NewService wires review dependencies.
func NewService(params Params) (Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet service required")
	}
	if params.Notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notify service required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		orders:  params.Orders,
		wallet:  params.Wallet,
		notify:  params.Notify,
		windows: params.Windows,
		tx:      params.Tx,
		log:     params.Logger,
		now:     params.Now,
	}, nil
}

// Approve confirms the receipt, optionally refunds an overpayment to
// the wallet, and releases the order to the warehouse. The order must
// be in financial review; anything else is a conflict.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*Confirmation, error) {
	if input.OrderID == uuid.Nil || input.ReviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and reviewer ids required")
	}
	if input.OverpaidAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "overpaid amount must not be negative")
	}

	var (
		order    *models.Order
		decision rules.Decision
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded

		var ok bool
		decision, ok = s.windows.Decide(rules.Input{
			Status:         order.Status,
			PaymentMethod:  order.PaymentMethod,
			PaymentStatus:  order.PaymentStatus,
			HasReceipt:     order.ReceiptID != nil,
			CreatedAt:      order.CreatedAt,
			UpdatedAt:      order.UpdatedAt,
			Now:            s.now(),
			Action:         rules.ActionApprove,
			HasOverpayment: input.OverpaidAmount.IsPositive(),
		})
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not under financial review").
				WithDetails(map[string]string{"status": order.Status.String()})
		}

		for _, effect := range decision.Effects {
			if effect != rules.EffectWalletCredit {
				continue
			}
			if _, err := s.wallet.Credit(ctx, tx, wallet.MovementInput{
				CustomerID:    order.CustomerID,
				Amount:        input.OverpaidAmount,
				Description:   "overpayment refund for order " + order.OrderNumber,
				ReferenceType: enums.WalletReferenceOverpaymentRefund,
				ReferenceID:   order.OrderNumber,
			}); err != nil {
				return err
			}
		}

		now := s.now()
		note := "receipt approved"
		if input.Notes != "" {
			note += ": " + input.Notes
		}
		won, err := repo.UpdateStatusGated(ctx, order.ID, order.Status, map[string]any{
			"status":         decision.NextStatus.String(),
			"payment_status": decision.NextPaymentStatus.String(),
			"locked":         false,
			"reviewer_id":    input.ReviewerID,
			"reviewed_at":    now,
			"updated_at":     now,
		}, note)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed during review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendNotification(ctx, order, decision.NotifyType, "")

	credited := decimal.Zero
	if input.OverpaidAmount.IsPositive() {
		credited = input.OverpaidAmount
	}
	return &Confirmation{
		OrderNumber:    order.OrderNumber,
		Status:         decision.NextStatus.String(),
		CreditedAmount: credited,
	}, nil
}

// Reject returns the order to its grace period so the customer can
// upload a corrected receipt. The receipt reference is cleared and the
// audit note records the category and the grace time left.
func (s *service) Reject(ctx context.Context, input RejectInput) (*Confirmation, error) {
	if input.OrderID == uuid.Nil || input.ReviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and reviewer ids required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rejection category")
	}

	var (
		order    *models.Order
		decision rules.Decision
		detail   string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded

		var ok bool
		decision, ok = s.windows.Decide(rules.Input{
			Status:        order.Status,
			PaymentMethod: order.PaymentMethod,
			PaymentStatus: order.PaymentStatus,
			HasReceipt:    order.ReceiptID != nil,
			CreatedAt:     order.CreatedAt,
			UpdatedAt:     order.UpdatedAt,
			Now:           s.now(),
			Action:        rules.ActionReject,
		})
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not under financial review").
				WithDetails(map[string]string{"status": order.Status.String()})
		}

		remaining := s.windows.RemainingGrace(order.CreatedAt, order.PaymentMethod, s.now())
		detail = input.Category.Message()
		note := fmt.Sprintf("receipt rejected (%s): %s", input.Category, detail)
		if input.Reason != "" {
			note += " - " + input.Reason
		}
		note += fmt.Sprintf(" (%.0f hours of grace remaining)", remaining.Hours())

		now := s.now()
		won, err := repo.UpdateStatusGated(ctx, order.ID, order.Status, map[string]any{
			"status":         decision.NextStatus.String(),
			"payment_status": decision.NextPaymentStatus.String(),
			"receipt_id":     nil,
			"receipt_amount": nil,
			"locked":         false,
			"reviewer_id":    input.ReviewerID,
			"reviewed_at":    now,
			"updated_at":     now,
		}, note)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed during review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendNotification(ctx, order, decision.NotifyType, detail)

	return &Confirmation{
		OrderNumber:    order.OrderNumber,
		Status:         decision.NextStatus.String(),
		CreditedAmount: decimal.Zero,
	}, nil
}

// ListPending returns receipts awaiting review, oldest upload first.
func (s *service) ListPending(ctx context.Context) ([]models.Order, error) {
	pending, err := s.orders.ListPendingReview(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return pending, nil
}

func (s *service) sendNotification(ctx context.Context, order *models.Order, notifyType enums.NotificationType, detail string) {
	if order == nil || !notifyType.IsValid() {
		return
	}
	if _, err := s.notify.NotifyOrder(ctx, notify.OrderNotificationInput{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		OrderNumber: order.OrderNumber,
		Type:        notifyType,
		Detail:      detail,
	}); err != nil {
		s.log.Warn(ctx, fmt.Sprintf("review notification failed for order %s: %v", order.OrderNumber, err))
	}
}
