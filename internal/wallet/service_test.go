package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
)

type fakeRepository struct {
	wallet       *models.Wallet
	recharge     *models.WalletRechargeRequest
	transactions []*models.WalletTransaction
	savedBalance *decimal.Decimal
	markWon      bool
	markUpdates  map[string]any
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	if f.wallet == nil || f.wallet.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.wallet, nil
}

func (f *fakeRepository) SaveBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	f.savedBalance = &balance
	return nil
}

func (f *fakeRepository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	f.transactions = append(f.transactions, txn)
	return nil
}

func (f *fakeRepository) ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	out := make([]models.WalletTransaction, 0, len(f.transactions))
	for _, txn := range f.transactions {
		out = append(out, *txn)
	}
	return out, nil
}

func (f *fakeRepository) FindRechargeRequest(ctx context.Context, requestID uuid.UUID) (*models.WalletRechargeRequest, error) {
	if f.recharge == nil || f.recharge.ID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.recharge, nil
}

func (f *fakeRepository) MarkRechargeProcessed(ctx context.Context, requestID uuid.UUID, updates map[string]any) (bool, error) {
	f.markUpdates = updates
	return f.markWon, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository, now time.Time) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo: repo,
		Tx:   fakeTxRunner{},
		Now:  func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func testWallet(balance, creditLimit int64) *models.Wallet {
	return &models.Wallet{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Balance:     decimal.NewFromInt(balance),
		CreditLimit: decimal.NewFromInt(creditLimit),
		Currency:    enums.CurrencyIRR,
	}
}

func TestService_CreditRecordsBalances(t *testing.T) {
	repo := &fakeRepository{wallet: testWallet(100000, 0)}
	svc := newTestService(t, repo, time.Now())

	txn, err := svc.Credit(context.Background(), nil, MovementInput{
		CustomerID:    repo.wallet.CustomerID,
		Amount:        decimal.NewFromInt(50000),
		Description:   "refund",
		ReferenceType: enums.WalletReferenceAutoRefund,
		ReferenceID:   uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if !txn.BalanceBefore.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("balance before = %s", txn.BalanceBefore)
	}
	if !txn.BalanceAfter.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("balance after = %s", txn.BalanceAfter)
	}
	if repo.savedBalance == nil || !repo.savedBalance.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("saved balance = %v", repo.savedBalance)
	}
	if txn.Type != enums.WalletTransactionCredit {
		t.Fatalf("transaction type = %s", txn.Type)
	}
}

func TestService_DebitWithinCreditLimit(t *testing.T) {
	repo := &fakeRepository{wallet: testWallet(10000, 50000)}
	svc := newTestService(t, repo, time.Now())

	txn, err := svc.Debit(context.Background(), nil, MovementInput{
		CustomerID:    repo.wallet.CustomerID,
		Amount:        decimal.NewFromInt(40000),
		Description:   "order payment",
		ReferenceType: enums.WalletReferenceOrderPayment,
		ReferenceID:   uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Debit error: %v", err)
	}
	if !txn.BalanceAfter.Equal(decimal.NewFromInt(-30000)) {
		t.Fatalf("balance after = %s", txn.BalanceAfter)
	}
}

func TestService_DebitRefusedPastCreditLimit(t *testing.T) {
	repo := &fakeRepository{wallet: testWallet(10000, 50000)}
	svc := newTestService(t, repo, time.Now())

	_, err := svc.Debit(context.Background(), nil, MovementInput{
		CustomerID:    repo.wallet.CustomerID,
		Amount:        decimal.NewFromInt(70000),
		Description:   "order payment",
		ReferenceType: enums.WalletReferenceOrderPayment,
		ReferenceID:   uuid.NewString(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(repo.transactions) != 0 {
		t.Fatal("refused debit must not write a transaction")
	}
	if repo.savedBalance != nil {
		t.Fatal("refused debit must not touch the balance")
	}
}

func TestService_MovementValidation(t *testing.T) {
	repo := &fakeRepository{wallet: testWallet(10000, 0)}
	svc := newTestService(t, repo, time.Now())

	tests := []struct {
		name  string
		input MovementInput
	}{
		{
			name: "missing customer",
			input: MovementInput{
				Amount:        decimal.NewFromInt(100),
				ReferenceType: enums.WalletReferenceAutoRefund,
			},
		},
		{
			name: "zero amount",
			input: MovementInput{
				CustomerID:    repo.wallet.CustomerID,
				Amount:        decimal.Zero,
				ReferenceType: enums.WalletReferenceAutoRefund,
			},
		},
		{
			name: "negative amount",
			input: MovementInput{
				CustomerID:    repo.wallet.CustomerID,
				Amount:        decimal.NewFromInt(-100),
				ReferenceType: enums.WalletReferenceAutoRefund,
			},
		},
		{
			name: "invalid reference",
			input: MovementInput{
				CustomerID:    repo.wallet.CustomerID,
				Amount:        decimal.NewFromInt(100),
				ReferenceType: enums.WalletReferenceType("not_real"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Credit(context.Background(), nil, tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestService_ProcessRecharge(t *testing.T) {
	wallet := testWallet(20000, 0)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		wallet:  wallet,
		markWon: true,
		recharge: &models.WalletRechargeRequest{
			ID:            uuid.New(),
			RequestNumber: "WRR-100",
			CustomerID:    wallet.CustomerID,
			Amount:        decimal.NewFromInt(80000),
			Currency:      enums.CurrencyIRR,
			Status:        enums.RechargeStatusPending,
		},
	}
	svc := newTestService(t, repo, now)

	adminID := uuid.New()
	processed, err := svc.ProcessRecharge(context.Background(), ProcessRechargeInput{
		RequestID:  repo.recharge.ID,
		AdminID:    adminID,
		AdminNotes: "verified by phone",
	})
	if err != nil {
		t.Fatalf("ProcessRecharge error: %v", err)
	}
	if processed.Status != enums.RechargeStatusCompleted {
		t.Fatalf("status = %s", processed.Status)
	}
	if processed.ApprovedBy == nil || *processed.ApprovedBy != adminID {
		t.Fatalf("approved by = %v", processed.ApprovedBy)
	}
	if processed.ProcessedAt == nil || !processed.ProcessedAt.Equal(now) {
		t.Fatalf("processed at = %v", processed.ProcessedAt)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("expected one credit, got %d", len(repo.transactions))
	}
	credit := repo.transactions[0]
	if credit.ReferenceType != enums.WalletReferenceRechargeRequest {
		t.Fatalf("reference type = %s", credit.ReferenceType)
	}
	if !credit.BalanceAfter.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("balance after = %s", credit.BalanceAfter)
	}
	if repo.markUpdates["admin_notes"] != "verified by phone" {
		t.Fatalf("admin notes not recorded: %v", repo.markUpdates)
	}
}

func TestService_ProcessRechargeRejectsNonPending(t *testing.T) {
	wallet := testWallet(20000, 0)
	repo := &fakeRepository{
		wallet:  wallet,
		markWon: true,
		recharge: &models.WalletRechargeRequest{
			ID:         uuid.New(),
			CustomerID: wallet.CustomerID,
			Amount:     decimal.NewFromInt(80000),
			Status:     enums.RechargeStatusCompleted,
		},
	}
	svc := newTestService(t, repo, time.Now())

	_, err := svc.ProcessRecharge(context.Background(), ProcessRechargeInput{
		RequestID: repo.recharge.ID,
		AdminID:   uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.transactions) != 0 {
		t.Fatal("non-pending request must not credit the wallet")
	}
}

func TestService_ProcessRechargeLosesRace(t *testing.T) {
	wallet := testWallet(20000, 0)
	repo := &fakeRepository{
		wallet:  wallet,
		markWon: false,
		recharge: &models.WalletRechargeRequest{
			ID:         uuid.New(),
			CustomerID: wallet.CustomerID,
			Amount:     decimal.NewFromInt(80000),
			Status:     enums.RechargeStatusPending,
		},
	}
	svc := newTestService(t, repo, time.Now())

	_, err := svc.ProcessRecharge(context.Background(), ProcessRechargeInput{
		RequestID: repo.recharge.ID,
		AdminID:   uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.transactions) != 0 {
		t.Fatal("lost race must not credit the wallet")
	}
}
