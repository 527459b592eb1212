package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/pkg/config"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
	"github.com/petverse/petverse-backend/pkg/outbox"
	"github.com/petverse/petverse-backend/pkg/outbox/payloads"
)

// Service exposes wallet reads and the customer-facing fund operations.
// Settlement debits and credits go through the repository inside the
// settlement transaction, not through this service.
type Service interface {
	Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	AddFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error)
	DeductFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo            Repository
	transactions    orders.TransactionRepository
	runner          txRunner
	events          outboxEmitter
	startingBalance decimal.Decimal
	logg            *logger.Logger
}

// ServiceParams bundles the dependencies required to build a wallet service.
type ServiceParams struct {
	Repo         Repository
	Transactions orders.TransactionRepository
	Runner       txRunner
	Events       outboxEmitter
	Wallet       config.WalletConfig
	Logger       *logger.Logger
}

// NewService wires a wallet service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository is required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction repository is required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if params.Wallet.StartingBalance.IsNegative() {
		return nil, fmt.Errorf("starting balance cannot be negative")
	}
	return &service{
		repo:            params.Repo,
		transactions:    params.Transactions,
		runner:          params.Runner,
		events:          params.Events,
		startingBalance: params.Wallet.StartingBalance,
		logg:            params.Logger,
	}, nil
}

// Ensure returns the user's wallet, lazily creating it with the
// configured starting balance on first touch.
func (s *service) Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	fresh := &models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: s.startingBalance,
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		// a concurrent Ensure may have created the row first
		if existing, findErr := s.repo.FindByUserID(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
	}
	return fresh, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.Ensure(ctx, userID)
}

// AddFunds credits the wallet and records a topup transaction row in
// the same database transaction.
func (s *service) AddFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	wallet, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		credited, err := s.repo.WithTx(tx).Credit(ctx, userID, amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
		}
		if !credited {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		row := &models.Transaction{
			ID:     uuid.New(),
			ToUser: &userID,
			Amount: amount,
			Kind:   enums.TransactionKindTopup,
		}
		if err := s.transactions.WithTx(tx).Append(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record topup")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletTopup,
			AggregateType: enums.AggregateWallet,
			AggregateID:   wallet.ID,
			Version:       1,
			Data: payloads.WalletTopupEvent{
				WalletID: wallet.ID,
				UserID:   userID,
				Amount:   amount,
				ToppedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("wallet %s topped up by %s", wallet.ID, amount))
	}
	return s.reload(ctx, userID)
}

// DeductFunds debits the wallet behind the balance guard. No ledger
// row is written; manual deductions have no counterparty.
func (s *service) DeductFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	debited, err := s.repo.DebitIfSufficient(ctx, userID, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
	}
	if !debited {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance")
	}
	return s.reload(ctx, userID)
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wallet")
	}
	return wallet, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be positive")
	}
	return nil
}
