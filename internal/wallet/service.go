package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines wallet balance movements and recharge processing.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, customerID uuid.UUID) (*BalanceResult, error)
	ProcessRecharge(ctx context.Context, input ProcessRechargeInput) (*models.WalletRechargeRequest, error)
}

// MovementInput describes a single balance movement and the business
// record it traces back to.
type MovementInput struct {
	CustomerID    uuid.UUID
	Amount        decimal.Decimal
	Description   string
	ReferenceType enums.WalletReferenceType
	ReferenceID   string
}

// BalanceResult pairs a wallet with its most recent ledger entries.
type BalanceResult struct {
	Wallet       *models.Wallet             `json:"wallet"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

// ProcessRechargeInput identifies the pending recharge and the admin
// completing it.
type ProcessRechargeInput struct {
	RequestID  uuid.UUID
	AdminID    uuid.UUID
	AdminNotes string
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// Params collects wallet service dependencies.
type Params struct {
	Repo Repository
	Tx   txRunner
	Now  func() time.Time
}

// NewService wires wallet dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet transaction runner required")
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, tx: params.Tx, now: params.Now}, nil
}

// Credit adds input.Amount to the customer's balance inside the caller's
// transaction. The paired ledger row captures the balance before and
// after the movement.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletTransaction, error) {
	return s.move(ctx, tx, enums.WalletTransactionCredit, input)
}

// Debit subtracts input.Amount. The balance may go negative down to the
// wallet's credit limit; past that the movement is refused.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.WalletTransaction, error) {
	return s.move(ctx, tx, enums.WalletTransactionDebit, input)
}

func (s *service) move(ctx context.Context, tx *gorm.DB, txnType enums.WalletTransactionType, input MovementInput) (*models.WalletTransaction, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.ReferenceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet reference type")
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.FindByCustomerID(ctx, input.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	before := wallet.Balance
	var after decimal.Decimal
	switch txnType {
	case enums.WalletTransactionCredit:
		after = before.Add(input.Amount)
	case enums.WalletTransactionDebit:
		available := before.Add(wallet.CreditLimit)
		if available.LessThan(input.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient wallet funds").
				WithDetails(map[string]string{
					"required":  input.Amount.StringFixed(2),
					"available": available.StringFixed(2),
				})
		}
		after = before.Sub(input.Amount)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet transaction type")
	}

	txn := &models.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		CustomerID:    wallet.CustomerID,
		Type:          txnType,
		Amount:        input.Amount,
		Currency:      wallet.Currency,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   input.Description,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write wallet transaction")
	}
	if err := repo.SaveBalance(ctx, wallet.ID, after); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, customerID uuid.UUID) (*BalanceResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	wallet, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	txns, err := s.repo.ListTransactions(ctx, customerID, 20)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	return &BalanceResult{Wallet: wallet, Transactions: txns}, nil
}

// ProcessRecharge completes a pending recharge: it marks the request
// completed and credits the wallet in one transaction. A request in any
// other state is a conflict.
func (s *service) ProcessRecharge(ctx context.Context, input ProcessRechargeInput) (*models.WalletRechargeRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recharge request id required")
	}
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}

	var processed *models.WalletRechargeRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindRechargeRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "recharge request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recharge request")
		}
		if request.Status != enums.RechargeStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "recharge request already processed").
				WithDetails(map[string]string{"status": request.Status.String()})
		}

		now := s.now()
		updates := map[string]any{
			"status":       enums.RechargeStatusCompleted.String(),
			"approved_by":  input.AdminID,
			"approved_at":  now,
			"processed_at": now,
			"updated_at":   now,
		}
		if input.AdminNotes != "" {
			updates["admin_notes"] = input.AdminNotes
		}
		won, err := repo.MarkRechargeProcessed(ctx, input.RequestID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark recharge processed")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "recharge request already processed")
		}

		if _, err := s.move(ctx, tx, enums.WalletTransactionCredit, MovementInput{
			CustomerID:    request.CustomerID,
			Amount:        request.Amount,
			Description:   "wallet recharge " + request.RequestNumber,
			ReferenceType: enums.WalletReferenceRechargeRequest,
			ReferenceID:   request.ID.String(),
		}); err != nil {
			return err
		}

		request.Status = enums.RechargeStatusCompleted
		request.ApprovedBy = &input.AdminID
		request.ApprovedAt = &now
		request.ProcessedAt = &now
		processed = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return processed, nil
}
