package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/customers"
	"github.com/momtazchem/commerce-backend/internal/inventory"
	"github.com/momtazchem/commerce-backend/internal/notify"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/metrics"
)

const gracePeriodPassName = "grace-period"

const defaultBatchSize = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GracePeriodPassParams configures the grace-period monitor.
type GracePeriodPassParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Inventory inventory.Repository
	Wallet    wallet.Service
	Notify    notify.Service
	Customers customers.Repository
	Windows   rules.Windows
	Metrics   *metrics.PassMetrics
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewGracePeriodPass constructs the grace-period monitor: receipt
// hand-off, expired-order archival, and urgent reminders.
func NewGracePeriodPass(params GracePeriodPassParams) (Pass, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Interval <= 0 {
		params.Interval = time.Hour
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &gracePeriodPass{
		logg:      params.Logger,
		db:        params.DB,
		orders:    params.Orders,
		notify:    params.Notify,
		customers: params.Customers,
		windows:   params.Windows,
		metrics:   params.Metrics,
		interval:  params.Interval,
		batch:     params.BatchSize,
		now:       params.Now,
		exec: effectExecutor{
			orders:    params.Orders,
			inventory: params.Inventory,
			wallet:    params.Wallet,
			now:       params.Now,
		},
	}, nil
}

type gracePeriodPass struct {
	logg      *logger.Logger
	db        txRunner
	orders    orders.Repository
	notify    notify.Service
	customers customers.Repository
	windows   rules.Windows
	metrics   *metrics.PassMetrics
	interval  time.Duration
	batch     int
	now       func() time.Time
	exec      effectExecutor
}

func (p *gracePeriodPass) Name() string            { return gracePeriodPassName }
func (p *gracePeriodPass) Interval() time.Duration { return p.interval }

func (p *gracePeriodPass) Run(ctx context.Context) error {
	return multierr.Combine(
		p.handOffReceipts(ctx),
		p.archiveExpired(ctx),
		p.sendUrgentReminders(ctx),
	)
}

// handOffReceipts moves orders with an uploaded receipt into financial
// review, locking them against further timing transitions.
func (p *gracePeriodPass) handOffReceipts(ctx context.Context) error {
	candidates, err := p.orders.FindWithReceiptPreReview(ctx, p.batch)
	if err != nil {
		return fmt.Errorf("find receipt candidates: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		if err := p.transition(ctx, order, nil); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("hand off order %s: %w", order.OrderNumber, err))
		}
	}
	return errs
}

// archiveExpired fails orders whose grace window ran out without a
// receipt: inventory back to stock, line items removed, order archived.
func (p *gracePeriodPass) archiveExpired(ctx context.Context) error {
	now := p.now()
	candidates, err := p.orders.FindExpiredWithoutReceipt(ctx, p.methodCutoffs(now), p.batch)
	if err != nil {
		return fmt.Errorf("find expired candidates: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		if _, err := p.customers.FindByID(ctx, order.CustomerID); err != nil {
			// Archival releases inventory and notifies the customer; a
			// missing customer row means the order data is inconsistent,
			// so the order is left for manual investigation.
			p.logError(ctx, order, fmt.Errorf("customer %s missing: %w", order.CustomerID, err))
			errs = multierr.Append(errs, fmt.Errorf("archive order %s: missing customer", order.OrderNumber))
			continue
		}
		if err := p.transition(ctx, order, nil); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("archive order %s: %w", order.OrderNumber, err))
		}
	}
	return errs
}

// sendUrgentReminders nudges customers whose deadline falls inside the
// next 24 hours. Notification record existence guards duplicates.
func (p *gracePeriodPass) sendUrgentReminders(ctx context.Context) error {
	now := p.now()
	deadline := p.methodCutoffs(now)
	entered := orders.MethodCutoffs{
		Extended: deadline.Extended.Add(p.windows.UrgentWindow),
		Standard: deadline.Standard.Add(p.windows.UrgentWindow),
	}

	candidates, err := p.orders.FindUrgentReminderCandidates(ctx, entered, deadline, p.batch)
	if err != nil {
		return fmt.Errorf("find urgent reminder candidates: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		sent, err := p.notify.NotifyOrder(ctx, notify.OrderNotificationInput{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			OrderNumber: order.OrderNumber,
			Type:        enums.NotificationTypeUrgentReminder,
		})
		if err != nil {
			p.logError(ctx, order, err)
			errs = multierr.Append(errs, fmt.Errorf("remind order %s: %w", order.OrderNumber, err))
			continue
		}
		if sent {
			p.addProcessed("reminded", 1)
		}
	}
	return errs
}

// transition decides and applies one order's next step in a single
// transaction, then sends the decision's notification post-commit.
func (p *gracePeriodPass) transition(ctx context.Context, order *models.Order, credit *wallet.MovementInput) error {
	decision, ok := p.windows.Decide(rules.Input{
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		HasReceipt:    order.ReceiptID != nil,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Now:           p.now(),
	})
	if !ok {
		p.addProcessed("skipped", 1)
		return nil
	}

	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		return p.exec.apply(ctx, tx, order, decision, credit)
	})
	if err != nil {
		if errors.Is(err, errOrderChanged) {
			p.addProcessed("skipped", 1)
			return nil
		}
		p.logError(ctx, order, err)
		p.addProcessed("error", 1)
		return err
	}

	p.addProcessed("transitioned", 1)
	if decision.NotifyType.IsValid() {
		if _, err := p.notify.NotifyOrder(ctx, notify.OrderNotificationInput{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			OrderNumber: order.OrderNumber,
			Type:        decision.NotifyType,
		}); err != nil {
			p.logg.Warn(p.logg.WithOrderNumber(ctx, order.OrderNumber), fmt.Sprintf("notification failed: %v", err))
		}
	}
	return nil
}

func (p *gracePeriodPass) methodCutoffs(now time.Time) orders.MethodCutoffs {
	extWindow, extBuffer := p.windows.ExtendedWindow, p.windows.ExtendedBuffer
	stdWindow, stdBuffer := p.windows.StandardWindow, p.windows.StandardBuffer
	return orders.MethodCutoffs{
		Extended: now.Add(-(extWindow + extBuffer)),
		Standard: now.Add(-(stdWindow + stdBuffer)),
	}
}

func (p *gracePeriodPass) logError(ctx context.Context, order *models.Order, err error) {
	errCtx := p.logg.WithOrderNumber(ctx, order.OrderNumber)
	errCtx = p.logg.WithField(errCtx, "error_detail", pkgerrors.Dump(err))
	p.logg.Error(errCtx, "grace period candidate failed", err)
}

func (p *gracePeriodPass) addProcessed(outcome string, n int) {
	if p.metrics == nil {
		return
	}
	p.metrics.AddProcessed(gracePeriodPassName, outcome, n)
}
