package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/inventory"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/metrics"
)

const expiredOrdersPassName = "expired-orders"

// The blanket cutoff runs one hour past the grace deadline so it only
// ever catches what the grace-period monitor missed.
const hardExpiryBuffer = time.Hour

// ExpiredOrdersPassParams configures the safety-net sweep.
type ExpiredOrdersPassParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Inventory inventory.Repository
	Wallet    wallet.Service
	Windows   rules.Windows
	SafetyNet config.SafetyNetConfig
	Metrics   *metrics.PassMetrics
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewExpiredOrdersPass constructs the expired-orders cleanup: a blanket
// removal of orders far past their deadline and a rescue for paid
// orders stuck in pending.
func NewExpiredOrdersPass(params ExpiredOrdersPassParams) (Pass, error) {
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
	if params.SafetyNet.StuckOrderAge <= 0 {
		return nil, fmt.Errorf("stuck order age required")
	}
	if params.SafetyNet.StaleUpdateAge <= 0 {
		return nil, fmt.Errorf("stale update age required")
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
	return &expiredOrdersPass{
		logg:      params.Logger,
		db:        params.DB,
		orders:    params.Orders,
		windows:   params.Windows,
		safetyNet: params.SafetyNet,
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

type expiredOrdersPass struct {
	logg      *logger.Logger
	db        txRunner
	orders    orders.Repository
	windows   rules.Windows
	safetyNet config.SafetyNetConfig
	metrics   *metrics.PassMetrics
	interval  time.Duration
	batch     int
	now       func() time.Time
	exec      effectExecutor
}

func (p *expiredOrdersPass) Name() string            { return expiredOrdersPassName }
func (p *expiredOrdersPass) Interval() time.Duration { return p.interval }

func (p *expiredOrdersPass) Run(ctx context.Context) error {
	return multierr.Combine(
		p.removeHardExpired(ctx),
		p.rescueStuckPaid(ctx),
	)
}

// removeHardExpired deletes orders an hour or more past their deadline
// regardless of receipt activity. No notification: the customer already
// heard from the grace-period monitor.
func (p *expiredOrdersPass) removeHardExpired(ctx context.Context) error {
	now := p.now()
	cutoffs := orders.MethodCutoffs{
		Extended: now.Add(-(p.windows.ExtendedWindow + p.windows.ExtendedBuffer + hardExpiryBuffer)),
		Standard: now.Add(-(p.windows.StandardWindow + p.windows.StandardBuffer + hardExpiryBuffer)),
	}
	candidates, err := p.orders.FindHardExpired(ctx, cutoffs, p.batch)
	if err != nil {
		return fmt.Errorf("find hard-expired orders: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		decision, ok := p.windows.DecideHardExpiry(rules.Input{
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
			continue
		}
		if err := p.apply(ctx, order, decision, "removed"); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove order %s: %w", order.OrderNumber, err))
		}
	}
	return errs
}

// rescueStuckPaid force-advances paid orders that sat in pending past
// both safety-net thresholds, so a lost confirmation never strands a
// paying customer.
func (p *expiredOrdersPass) rescueStuckPaid(ctx context.Context) error {
	now := p.now()
	candidates, err := p.orders.FindStuckPaid(ctx,
		now.Add(-p.safetyNet.StuckOrderAge),
		now.Add(-p.safetyNet.StaleUpdateAge),
		p.batch,
	)
	if err != nil {
		return fmt.Errorf("find stuck paid orders: %w", err)
	}

	var errs error
	for i := range candidates {
		order := &candidates[i]
		decision, ok := p.windows.Decide(rules.Input{
			Status:         order.Status,
			PaymentMethod:  order.PaymentMethod,
			PaymentStatus:  order.PaymentStatus,
			HasReceipt:     order.ReceiptID != nil,
			CreatedAt:      order.CreatedAt,
			UpdatedAt:      order.UpdatedAt,
			Now:            p.now(),
			StuckOrderAge:  p.safetyNet.StuckOrderAge,
			StaleUpdateAge: p.safetyNet.StaleUpdateAge,
		})
		if !ok {
			p.addProcessed("skipped", 1)
			continue
		}
		if err := p.apply(ctx, order, decision, "rescued"); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rescue order %s: %w", order.OrderNumber, err))
		}
	}
	return errs
}

func (p *expiredOrdersPass) apply(ctx context.Context, order *models.Order, decision rules.Decision, outcome string) error {
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		return p.exec.apply(ctx, tx, order, decision, nil)
	})
	if err != nil {
		if errors.Is(err, errOrderChanged) {
			p.addProcessed("skipped", 1)
			return nil
		}
		errCtx := p.logg.WithOrderNumber(ctx, order.OrderNumber)
		errCtx = p.logg.WithField(errCtx, "error_detail", pkgerrors.Dump(err))
		p.logg.Error(errCtx, "expired orders candidate failed", err)
		p.addProcessed("error", 1)
		return err
	}
	p.addProcessed(outcome, 1)
	return nil
}

func (p *expiredOrdersPass) addProcessed(outcome string, n int) {
	if p.metrics == nil {
		return
	}
	p.metrics.AddProcessed(expiredOrdersPassName, outcome, n)
}
