package recon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/momtazchem/commerce-backend/internal/carts"
	"github.com/momtazchem/commerce-backend/internal/notify"
	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	"github.com/momtazchem/commerce-backend/pkg/logger"
	"github.com/momtazchem/commerce-backend/pkg/metrics"
)

const cartCleanupPassName = "cart-cleanup"

// CartCleanupPassParams configures the staged abandoned-cart sweep.
type CartCleanupPassParams struct {
	Logger    *logger.Logger
	Carts     carts.Repository
	Notify    notify.Service
	Stages    config.CartConfig
	Metrics   *metrics.PassMetrics
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewCartCleanupPass constructs the cart cleanup pass. The three stages
// all key off last activity, so renewed activity restarts the sequence.
func NewCartCleanupPass(params CartCleanupPassParams) (Pass, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("carts repository required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.Stages.AbandonAfter <= 0 ||
		params.Stages.SecondReminder <= params.Stages.AbandonAfter ||
		params.Stages.DeactivateAfter <= params.Stages.SecondReminder {
		return nil, fmt.Errorf("cart stages must be increasing durations")
	}
	if params.Interval <= 0 {
		params.Interval = 30 * time.Minute
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &cartCleanupPass{
		logg:     params.Logger,
		carts:    params.Carts,
		notify:   params.Notify,
		stages:   params.Stages,
		metrics:  params.Metrics,
		interval: params.Interval,
		batch:    params.BatchSize,
		now:      params.Now,
	}, nil
}

type cartCleanupPass struct {
	logg     *logger.Logger
	carts    carts.Repository
	notify   notify.Service
	stages   config.CartConfig
	metrics  *metrics.PassMetrics
	interval time.Duration
	batch    int
	now      func() time.Time
}

func (p *cartCleanupPass) Name() string            { return cartCleanupPassName }
func (p *cartCleanupPass) Interval() time.Duration { return p.interval }

func (p *cartCleanupPass) Run(ctx context.Context) error {
	return multierr.Combine(
		p.markAbandoned(ctx),
		p.sendSecondReminders(ctx),
		p.deactivateStale(ctx),
	)
}

// markAbandoned flags idle carts and sends the first reminder.
func (p *cartCleanupPass) markAbandoned(ctx context.Context) error {
	now := p.now()
	sessions, err := p.carts.FindIdleActive(ctx, now.Add(-p.stages.AbandonAfter), p.batch)
	if err != nil {
		return fmt.Errorf("find idle carts: %w", err)
	}

	var errs error
	for i := range sessions {
		session := &sessions[i]
		won, err := p.carts.MarkAbandoned(ctx, session.ID, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("abandon cart %s: %w", session.ID, err))
			continue
		}
		if !won {
			p.addProcessed("skipped", 1)
			continue
		}
		p.addProcessed("abandoned", 1)
		p.remind(ctx, session, enums.NotificationTypeFirstReminder)
	}
	return errs
}

// sendSecondReminders follows up on carts still idle after the second
// stage. The notification record guard keeps this to one per sequence.
func (p *cartCleanupPass) sendSecondReminders(ctx context.Context) error {
	now := p.now()
	sessions, err := p.carts.FindAbandoned(ctx, now.Add(-p.stages.SecondReminder), p.batch)
	if err != nil {
		return fmt.Errorf("find abandoned carts: %w", err)
	}

	for i := range sessions {
		p.remind(ctx, &sessions[i], enums.NotificationTypeSecondReminder)
	}
	return nil
}

// deactivateStale logically deletes carts idle past the final stage.
func (p *cartCleanupPass) deactivateStale(ctx context.Context) error {
	now := p.now()
	sessions, err := p.carts.FindForDeactivation(ctx, now.Add(-p.stages.DeactivateAfter), p.batch)
	if err != nil {
		return fmt.Errorf("find stale carts: %w", err)
	}

	var errs error
	for i := range sessions {
		session := &sessions[i]
		won, err := p.carts.Deactivate(ctx, session.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deactivate cart %s: %w", session.ID, err))
			continue
		}
		if won {
			p.addProcessed("deactivated", 1)
		}
	}
	return errs
}

func (p *cartCleanupPass) remind(ctx context.Context, session *models.CartSession, reminderType enums.NotificationType) {
	sent, err := p.notify.NotifyCart(ctx, notify.CartNotificationInput{
		CartSessionID: session.ID,
		CustomerID:    session.CustomerID,
		Type:          reminderType,
	})
	if err != nil {
		p.logg.Warn(p.logg.WithCustomerID(ctx, session.CustomerID.String()),
			fmt.Sprintf("cart reminder failed: %v", err))
		return
	}
	if sent {
		p.addProcessed("reminded", 1)
	}
}

func (p *cartCleanupPass) addProcessed(outcome string, n int) {
	if p.metrics == nil {
		return
	}
	p.metrics.AddProcessed(cartCleanupPassName, outcome, n)
}
