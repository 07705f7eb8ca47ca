package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

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

const autoRefundPassName = "auto-refund"

// AutoRefundPassParams configures the failed-payment refund sweep.
type AutoRefundPassParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Inventory inventory.Repository
	Wallet    wallet.Service
	Notify    notify.Service
	Windows   rules.Windows
	Metrics   *metrics.PassMetrics
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewAutoRefundPass constructs the auto-refund pass. Orders whose
// immediate payment never confirmed are cancelled; wallet-partial
// orders get their wallet slice back first.
func NewAutoRefundPass(params AutoRefundPassParams) (Pass, error) {
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
	if params.Interval <= 0 {
		params.Interval = 15 * time.Minute
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &autoRefundPass{
		logg:     params.Logger,
		db:       params.DB,
		orders:   params.Orders,
		notify:   params.Notify,
		windows:  params.Windows,
		metrics:  params.Metrics,
		interval: params.Interval,
		batch:    params.BatchSize,
		now:      params.Now,
		exec: effectExecutor{
			orders:    params.Orders,
			inventory: params.Inventory,
			wallet:    params.Wallet,
			now:       params.Now,
		},
	}, nil
}

type autoRefundPass struct {
	logg     *logger.Logger
	db       txRunner
	orders   orders.Repository
	notify   notify.Service
	windows  rules.Windows
	metrics  *metrics.PassMetrics
	interval time.Duration
	batch    int
	now      func() time.Time
	exec     effectExecutor
}

func (p *autoRefundPass) Name() string            { return autoRefundPassName }
func (p *autoRefundPass) Interval() time.Duration { return p.interval }

func (p *autoRefundPass) Run(ctx context.Context) error {
	now := p.now()
	candidates, err := p.orders.FindFailedPayments(ctx, now.Add(-p.windows.AutoRefundAge), p.batch)
	if err != nil {
		return fmt.Errorf("find failed payments: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		if err := p.cancel(ctx, order); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("auto-refund order %s: %w", order.OrderNumber, err))
		}
	}
	return errs
}

// cancel rolls one failed-payment order back: wallet slice refunded
// when one was charged, inventory released, order cancelled. A partial
// failure rolls the transaction back and leaves the order for the next
// tick.
func (p *autoRefundPass) cancel(ctx context.Context, order *models.Order) error {
	decision, ok := p.windows.Decide(rules.Input{
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		HasReceipt:    order.ReceiptID != nil,
		HasWalletPart: order.WalletAmount.IsPositive(),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Now:           p.now(),
	})
	if !ok {
		p.addProcessed("skipped", 1)
		return nil
	}

	var credit *wallet.MovementInput
	if order.WalletAmount.IsPositive() {
		credit = &wallet.MovementInput{
			CustomerID:    order.CustomerID,
			Amount:        order.WalletAmount,
			Description:   "automatic refund for failed payment on order " + order.OrderNumber,
			ReferenceType: enums.WalletReferenceAutoRefund,
			ReferenceID:   order.OrderNumber,
		}
	}

	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		return p.exec.apply(ctx, tx, order, decision, credit)
	})
	if err != nil {
		if errors.Is(err, errOrderChanged) {
			p.addProcessed("skipped", 1)
			return nil
		}
		errCtx := p.logg.WithOrderNumber(ctx, order.OrderNumber)
		errCtx = p.logg.WithField(errCtx, "error_detail", pkgerrors.Dump(err))
		p.logg.Error(errCtx, "auto-refund candidate failed", err)
		p.addProcessed("error", 1)
		return err
	}

	p.addProcessed("refunded", 1)
	if decision.NotifyType.IsValid() {
		if _, err := p.notify.NotifyOrder(ctx, notify.OrderNotificationInput{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			OrderNumber: order.OrderNumber,
			Type:        decision.NotifyType,
			Detail:      "The payment could not be confirmed, so the order was cancelled and any wallet charge refunded.",
		}); err != nil {
			p.logg.Warn(p.logg.WithOrderNumber(ctx, order.OrderNumber), fmt.Sprintf("notification failed: %v", err))
		}
	}
	return nil
}

func (p *autoRefundPass) addProcessed(outcome string, n int) {
	if p.metrics == nil {
		return
	}
	p.metrics.AddProcessed(autoRefundPassName, outcome, n)
}
