package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/internal/cart"
	"github.com/petverse/petverse-backend/internal/catalog"
	"github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/internal/pricing"
	"github.com/petverse/petverse-backend/internal/wallet"
	"github.com/petverse/petverse-backend/pkg/config"
	"github.com/petverse/petverse-backend/pkg/db"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
	"github.com/petverse/petverse-backend/pkg/metrics"
	"github.com/petverse/petverse-backend/pkg/outbox"
	"github.com/petverse/petverse-backend/pkg/outbox/payloads"
	"github.com/petverse/petverse-backend/pkg/types"
)

// CheckoutInput is everything the orchestrator needs for one settlement.
// AttemptID is the client-generated idempotency token; retrying with the
// same token replays the committed outcome instead of settling twice.
type CheckoutInput struct {
	CustomerID      uuid.UUID
	AttemptID       uuid.UUID
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
}

// Result is the outcome of a settlement. Replayed is set when the
// attempt token had already committed and the stored order is returned.
type Result struct {
	Order    *models.Order
	Quote    pricing.Quote
	Replayed bool
}

// Service orchestrates checkout settlement end to end: cart resolution,
// pricing, wallet debit, inventory claims, fund distribution, order
// snapshot and cart clearing.
type Service interface {
	Settle(ctx context.Context, input CheckoutInput) (*Result, error)
}

type cartResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*cart.ResolvedCart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// walletEnsurer provisions a wallet on first touch, satisfied by the
// wallet service. Customers checking out before ever visiting their
// wallet still start from the configured balance.
type walletEnsurer interface {
	Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	attempts     AttemptRepository
	carts        cartResolver
	accounts     walletEnsurer
	wallets      wallet.Repository
	catalog      catalog.Repository
	orders       orders.Repository
	transactions orders.TransactionRepository
	pricer       *pricing.Engine
	runner       txRunner
	events       outboxEmitter
	metrics      *metrics.SettlementMetrics
	sellerRate   decimal.Decimal
	platformID   uuid.UUID
	logg         *logger.Logger
}

// ServiceParams bundles the dependencies required to build the settlement service.
type ServiceParams struct {
	Attempts     AttemptRepository
	Carts        cartResolver
	Accounts     walletEnsurer
	Wallets      wallet.Repository
	Catalog      catalog.Repository
	Orders       orders.Repository
	Transactions orders.TransactionRepository
	Pricer       *pricing.Engine
	Runner       txRunner
	Events       outboxEmitter
	Metrics      *metrics.SettlementMetrics
	Settlement   config.SettlementConfig
	Wallet       config.WalletConfig
	Logger       *logger.Logger
}

// NewService wires the settlement orchestrator with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart resolver is required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("wallet ensurer is required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet repository is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction repository is required")
	}
	if params.Pricer == nil {
		return nil, fmt.Errorf("pricing engine is required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	platformID, err := uuid.Parse(params.Wallet.PlatformUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid platform user id: %w", err)
	}
	return &service{
		attempts:     params.Attempts,
		carts:        params.Carts,
		accounts:     params.Accounts,
		wallets:      params.Wallets,
		catalog:      params.Catalog,
		orders:       params.Orders,
		transactions: params.Transactions,
		pricer:       params.Pricer,
		runner:       params.Runner,
		events:       params.Events,
		metrics:      params.Metrics,
		sellerRate:   params.Settlement.SellerRate(),
		platformID:   platformID,
		logg:         params.Logger,
	}, nil
}

func (s *service) Settle(ctx context.Context, input CheckoutInput) (*Result, error) {
	start := time.Now()
	result, err := s.settle(ctx, input)
	outcome := "committed"
	if err != nil {
		outcome = "failed"
		if typed := pkgerrors.As(err); typed != nil {
			outcome = string(typed.Code())
		}
	} else if result.Replayed {
		outcome = "replayed"
	}
	s.metrics.IncOutcome(outcome)
	s.metrics.ObserveDuration(outcome, time.Since(start))
	return result, err
}

func (s *service) settle(ctx context.Context, input CheckoutInput) (*Result, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if s.logg != nil {
		ctx = s.logg.WithAttemptID(ctx, input.AttemptID.String())
	}

	if result, err := s.claimAttempt(ctx, input); result != nil || err != nil {
		return result, err
	}

	resolved, err := s.carts.Resolve(ctx, input.CustomerID)
	if err != nil {
		s.abort(ctx, input.AttemptID, err.Error())
		return nil, err
	}

	lines := make([]pricing.Line, len(resolved.Lines))
	for i, item := range resolved.Lines {
		lines[i] = pricing.Line{
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
		}
	}
	quote, err := s.pricer.Price(lines)
	if err != nil {
		s.abort(ctx, input.AttemptID, err.Error())
		return nil, err
	}

	// first checkout may precede any wallet touch; provision it so the
	// starting balance counts
	account, err := s.accounts.Ensure(ctx, input.CustomerID)
	if err != nil {
		s.abort(ctx, input.AttemptID, "wallet lookup failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure customer wallet")
	}

	// read-only validation: reject what the resolved snapshot already
	// shows will fail, before anything moves. The guarded debit and the
	// per-line claims below remain the authoritative checks.
	if err := s.prevalidate(resolved.Lines, account.Balance, quote.Total); err != nil {
		s.abort(ctx, input.AttemptID, err.Error())
		return nil, err
	}

	// debit first: everything after this point must either complete or
	// be compensated with a refund
	debited, err := s.wallets.DebitIfSufficient(ctx, input.CustomerID, quote.Total)
	if err != nil {
		s.abort(ctx, input.AttemptID, "wallet debit failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
	}
	if !debited {
		s.abort(ctx, input.AttemptID, "insufficient balance")
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance")
	}

	claimed, err := s.claimInventory(ctx, resolved.Lines)
	if err != nil {
		return nil, s.compensate(ctx, input, quote.Total, claimed, err)
	}

	order, err := s.distribute(ctx, input, resolved, quote)
	if err != nil {
		return nil, s.compensate(ctx, input, quote.Total, claimed, err)
	}

	// the order is committed; a failed cart clear must not fail checkout
	if err := s.carts.Clear(ctx, input.CustomerID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clearing cart after settlement", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()),
			fmt.Sprintf("settlement committed, order %s total %s", order.OrderNumber, quote.Total))
	}
	return &Result{Order: order, Quote: quote}, nil
}

func (s *service) validate(input CheckoutInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.AttemptID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "attempt token is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if missing := input.ShippingAddress.Validate(); missing != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping address: missing %s", missing))
	}
	return nil
}

// prevalidate checks the resolved stock snapshot and the wallet
// balance without mutating anything. A shortfall caught here aborts
// with no debit to compensate; races that slip past surface later at
// the guarded updates.
func (s *service) prevalidate(lines []cart.ResolvedLine, balance, total decimal.Decimal) error {
	for _, line := range lines {
		if line.ItemType == enums.ItemTypeProduct && line.Stock < line.Quantity {
			return pkgerrors.New(pkgerrors.CodeOutOfStock,
				fmt.Sprintf("%s has insufficient stock", line.Name))
		}
	}
	if balance.LessThan(total) {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient wallet balance")
	}
	return nil
}

// claimAttempt registers the attempt token. A non-nil result means the
// token already committed and the stored order is replayed.
func (s *service) claimAttempt(ctx context.Context, input CheckoutInput) (*Result, error) {
	existing, err := s.attempts.FindByID(ctx, input.AttemptID)
	switch {
	case err == nil:
		return s.replay(ctx, input, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup settlement attempt")
	}

	attempt := &models.SettlementAttempt{
		ID:         input.AttemptID,
		CustomerID: input.CustomerID,
		Status:     enums.SettlementStatusPending,
	}
	if err := s.attempts.Register(ctx, attempt); err != nil {
		// a concurrent request with the same token won the insert
		if existing, findErr := s.attempts.FindByID(ctx, input.AttemptID); findErr == nil {
			return s.replay(ctx, input, existing)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register settlement attempt")
	}
	return nil, nil
}

func (s *service) replay(ctx context.Context, input CheckoutInput, attempt *models.SettlementAttempt) (*Result, error) {
	if attempt.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "attempt token belongs to another customer")
	}
	switch attempt.Status {
	case enums.SettlementStatusCommitted:
		if attempt.OrderID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "committed attempt has no order")
		}
		order, err := s.orders.FindByID(ctx, *attempt.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settled order")
		}
		return &Result{Order: order, Replayed: true}, nil
	case enums.SettlementStatusPending:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "settlement already in progress for this token")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "attempt token was already used")
	}
}

// claimInventory decrements product stock and reserves pets line by
// line. On failure it returns the lines already claimed so the caller
// can release them.
func (s *service) claimInventory(ctx context.Context, lines []cart.ResolvedLine) ([]cart.ResolvedLine, error) {
	var claimed []cart.ResolvedLine
	for _, line := range lines {
		switch line.ItemType {
		case enums.ItemTypeProduct:
			ok, err := s.catalog.DecrementStock(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return claimed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return claimed, pkgerrors.New(pkgerrors.CodeOutOfStock,
					fmt.Sprintf("%s has insufficient stock", line.Name))
			}
		case enums.ItemTypePet:
			ok, err := s.catalog.ReservePet(ctx, line.ItemID)
			if err != nil {
				return claimed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve pet")
			}
			if !ok {
				return claimed, pkgerrors.New(pkgerrors.CodeOutOfStock,
					fmt.Sprintf("%s is no longer available", line.Name))
			}
		}
		claimed = append(claimed, line)
	}
	return claimed, nil
}

// distribute runs the money movement and order snapshot as one database
// transaction: seller and platform credits, ledger rows, the order with
// its item snapshots, the committed attempt and the settled event.
func (s *service) distribute(ctx context.Context, input CheckoutInput, resolved *cart.ResolvedCart, quote pricing.Quote) (*models.Order, error) {
	now := time.Now().UTC()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   orders.NewOrderNumber(now),
		CustomerID:    input.CustomerID,
		SellerID:      resolved.Lines[0].SellerID, // primary seller
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		PaymentMethod: input.PaymentMethod,
		Shipping:      input.ShippingAddress,
		Subtotal:      quote.Subtotal,
		ShippingFee:   quote.ShippingFee,
		Tax:           quote.Tax,
		Total:         quote.Total,
	}
	for _, line := range resolved.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:              uuid.New(),
			ItemID:          line.ItemID,
			ItemType:        line.ItemType,
			Name:            line.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: pricing.Line{UnitPrice: line.UnitPrice, DiscountPercent: line.DiscountPercent, Quantity: 1}.EffectivePrice().Round(2),
		})
	}

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		// 95% of each line subtotal goes to that line's seller; the
		// remainder of the total (commission plus tax and shipping)
		// accumulates to the platform wallet
		sellerTotal := decimal.Zero
		for _, line := range resolved.Lines {
			lineSubtotal := pricing.Line{
				UnitPrice:       line.UnitPrice,
				DiscountPercent: line.DiscountPercent,
				Quantity:        line.Quantity,
			}.Subtotal()
			share := lineSubtotal.Mul(s.sellerRate).Round(2)
			if err := s.payout(ctx, tx, input.CustomerID, line.SellerID, share, enums.TransactionKindSellerShare, order.ID); err != nil {
				return err
			}
			sellerTotal = sellerTotal.Add(share)
		}
		platformShare := quote.Total.Sub(sellerTotal)
		if err := s.payout(ctx, tx, input.CustomerID, s.platformID, platformShare, enums.TransactionKindCommission, order.ID); err != nil {
			return err
		}

		if err := s.attempts.WithTx(tx).MarkCommitted(ctx, input.AttemptID, order.ID, quote.Total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit settlement attempt")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderSettledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				SellerID:    order.SellerID,
				Total:       quote.Total,
				SellerShare: sellerTotal,
				Commission:  platformShare,
				SettledAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// payout credits a recipient wallet and appends the matching ledger
// row. Recipients without a wallet yet get one created on the spot.
func (s *service) payout(ctx context.Context, tx *gorm.DB, from, to uuid.UUID, amount decimal.Decimal, kind enums.TransactionKind, orderID uuid.UUID) error {
	if !amount.IsPositive() {
		return nil
	}
	wallets := s.wallets.WithTx(tx)
	credited, err := wallets.Credit(ctx, to, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
	}
	if !credited {
		if createErr := wallets.Create(ctx, &models.Wallet{ID: uuid.New(), UserID: to, Balance: amount}); createErr != nil {
			if !db.IsUniqueViolation(createErr, "") {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create recipient wallet")
			}
			// a concurrent payout created the row first; credit it
			retried, err := wallets.Credit(ctx, to, amount)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
			}
			if !retried {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create recipient wallet")
			}
		}
	}
	row := &models.Transaction{
		ID:       uuid.New(),
		FromUser: &from,
		ToUser:   &to,
		Amount:   amount,
		Kind:     kind,
		OrderID:  &orderID,
	}
	if err := s.transactions.WithTx(tx).Append(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append transaction")
	}
	return nil
}

// compensate unwinds a post-debit failure: claimed inventory is
// released and the debited total is refunded with a ledger row. When
// any unwind step itself fails the attempt is left pending for manual
// resolution and the combined error surfaces as a dependency failure.
func (s *service) compensate(ctx context.Context, input CheckoutInput, total decimal.Decimal, claimed []cart.ResolvedLine, cause error) error {
	var unwindErr error
	for _, line := range claimed {
		switch line.ItemType {
		case enums.ItemTypeProduct:
			if err := s.catalog.RestoreStock(ctx, line.ItemID, line.Quantity); err != nil {
				unwindErr = multierr.Append(unwindErr, fmt.Errorf("restore stock for %s: %w", line.ItemID, err))
			}
		case enums.ItemTypePet:
			if err := s.catalog.ReleasePet(ctx, line.ItemID); err != nil {
				unwindErr = multierr.Append(unwindErr, fmt.Errorf("release pet %s: %w", line.ItemID, err))
			}
		}
	}

	refundErr := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		credited, err := s.wallets.WithTx(tx).Credit(ctx, input.CustomerID, total)
		if err != nil {
			return err
		}
		if !credited {
			return fmt.Errorf("customer wallet vanished during refund")
		}
		return s.transactions.WithTx(tx).Append(ctx, &models.Transaction{
			ID:     uuid.New(),
			ToUser: &input.CustomerID,
			Amount: total,
			Kind:   enums.TransactionKindRefund,
		})
	})
	unwindErr = multierr.Append(unwindErr, refundErr)

	if unwindErr != nil {
		// money or stock may be stranded; keep the attempt pending so
		// an operator can reconcile it
		s.metrics.IncCompensation("failed")
		if s.logg != nil {
			s.logg.Error(ctx, "settlement compensation failed", unwindErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			multierr.Append(cause, unwindErr), "settlement unwind incomplete")
	}

	s.metrics.IncCompensation("ok")
	s.abort(ctx, input.AttemptID, cause.Error())
	if err := s.emitCompensation(ctx, input, total, cause); err != nil && s.logg != nil {
		s.logg.Error(ctx, "emitting compensation event", err)
	}
	if s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("settlement compensated, refunded %s: %v", total, cause))
	}
	return cause
}

func (s *service) emitCompensation(ctx context.Context, input CheckoutInput, total decimal.Decimal, cause error) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementCompensated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   input.AttemptID,
			Version:       1,
			Data: payloads.SettlementCompensatedEvent{
				AttemptID:  input.AttemptID,
				CustomerID: input.CustomerID,
				Amount:     total,
				Reason:     cause.Error(),
				RefundedAt: time.Now().UTC(),
			},
		})
	})
}

func (s *service) abort(ctx context.Context, attemptID uuid.UUID, reason string) {
	if err := s.attempts.MarkAborted(ctx, attemptID, reason); err != nil && s.logg != nil {
		s.logg.Error(ctx, "marking settlement attempt aborted", err)
	}
}
