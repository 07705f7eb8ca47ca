package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/internal/inventory"
	"github.com/momtazchem/commerce-backend/internal/orders"
	"github.com/momtazchem/commerce-backend/internal/rules"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
)

// errOrderChanged marks a transition that lost its status gate. Another
// writer moved the order first; the candidate is simply skipped.
var errOrderChanged = errors.New("order status changed since selection")

// effectExecutor applies a rules decision inside one transaction. The
// side effects run in the decision's order and the status write always
// comes last, so a crash mid-transition leaves the order selectable by
// the next tick.
type effectExecutor struct {
	orders    orders.Repository
	inventory inventory.Repository
	wallet    wallet.Service
	now       func() time.Time
}

// apply executes the decision for order inside tx. credit carries the
// wallet movement when the decision includes a wallet-credit effect.
func (e *effectExecutor) apply(ctx context.Context, tx *gorm.DB, order *models.Order, decision rules.Decision, credit *wallet.MovementInput) error {
	ordersRepo := e.orders.WithTx(tx)
	invRepo := e.inventory.WithTx(tx)

	updates := map[string]any{
		"status":         decision.NextStatus.String(),
		"payment_status": decision.NextPaymentStatus.String(),
		"updated_at":     e.now(),
	}

	for _, effect := range decision.Effects {
		switch effect {
		case rules.EffectLock:
			updates["locked"] = true
		case rules.EffectUnlock:
			updates["locked"] = false
		case rules.EffectClearReceipt:
			updates["receipt_id"] = nil
			updates["receipt_amount"] = nil
		case rules.EffectReleaseInventory:
			items, err := ordersRepo.FindLineItems(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("load line items: %w", err)
			}
			for _, item := range items {
				if err := invRepo.Release(ctx, item.ProductID, item.Qty); err != nil {
					return fmt.Errorf("release inventory for product %s: %w", item.ProductID, err)
				}
			}
		case rules.EffectDeleteLineItems:
			if err := ordersRepo.DeleteLineItems(ctx, order.ID); err != nil {
				return fmt.Errorf("delete line items: %w", err)
			}
		case rules.EffectWalletCredit:
			if credit == nil {
				return fmt.Errorf("decision demands wallet credit but none was prepared")
			}
			if _, err := e.wallet.Credit(ctx, tx, *credit); err != nil {
				return err
			}
		case rules.EffectNotify:
			// Post-commit, handled by the pass.
		}
	}

	won, err := ordersRepo.UpdateStatusGated(ctx, order.ID, order.Status, updates, decision.Note)
	if err != nil {
		return fmt.Errorf("gated status update: %w", err)
	}
	if !won {
		return errOrderChanged
	}
	return nil
}
