package settlement

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/internal/cart"
	"github.com/petverse/petverse-backend/internal/catalog"
	"github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/internal/pricing"
	"github.com/petverse/petverse-backend/internal/wallet"
	"github.com/petverse/petverse-backend/pkg/config"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/outbox"
	"github.com/petverse/petverse-backend/pkg/types"
)

// ---- in-memory fakes -------------------------------------------------

type memAttempts struct {
	rows map[uuid.UUID]*models.SettlementAttempt
}

func newMemAttempts() *memAttempts {
	return &memAttempts{rows: map[uuid.UUID]*models.SettlementAttempt{}}
}

func (m *memAttempts) WithTx(tx *gorm.DB) AttemptRepository { return m }

func (m *memAttempts) Register(ctx context.Context, attempt *models.SettlementAttempt) error {
	if _, exists := m.rows[attempt.ID]; exists {
		return fmt.Errorf("duplicate key")
	}
	m.rows[attempt.ID] = attempt
	return nil
}

func (m *memAttempts) FindByID(ctx context.Context, id uuid.UUID) (*models.SettlementAttempt, error) {
	attempt, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (m *memAttempts) MarkCommitted(ctx context.Context, id, orderID uuid.UUID, total decimal.Decimal) error {
	attempt, ok := m.rows[id]
	if !ok || attempt.Status != enums.SettlementStatusPending {
		return nil
	}
	attempt.Status = enums.SettlementStatusCommitted
	attempt.OrderID = &orderID
	attempt.Total = total
	return nil
}

func (m *memAttempts) MarkAborted(ctx context.Context, id uuid.UUID, reason string) error {
	attempt, ok := m.rows[id]
	if !ok || attempt.Status != enums.SettlementStatusPending {
		return nil
	}
	attempt.Status = enums.SettlementStatusAborted
	attempt.FailReason = &reason
	return nil
}

type memCart struct {
	resolved *cart.ResolvedCart
	err      error
	cleared  bool
}

func (m *memCart) Resolve(ctx context.Context, userID uuid.UUID) (*cart.ResolvedCart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resolved, nil
}

func (m *memCart) Clear(ctx context.Context, userID uuid.UUID) error {
	m.cleared = true
	return nil
}

type memWallets struct {
	balances       map[uuid.UUID]decimal.Decimal
	starting       decimal.Decimal
	refundErr      error
	refunding      bool
	debitDenied    bool
	createConflict bool
}

func newMemWallets() *memWallets {
	return &memWallets{balances: map[uuid.UUID]decimal.Decimal{}}
}

func (m *memWallets) WithTx(tx *gorm.DB) wallet.Repository { return m }

func (m *memWallets) Create(ctx context.Context, w *models.Wallet) error {
	if m.createConflict {
		// a concurrent create won with an empty wallet
		if _, ok := m.balances[w.UserID]; !ok {
			m.balances[w.UserID] = decimal.Zero
		}
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	m.balances[w.UserID] = w.Balance
	return nil
}

func (m *memWallets) Ensure(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	balance, ok := m.balances[userID]
	if !ok {
		balance = m.starting
		m.balances[userID] = balance
	}
	return &models.Wallet{ID: uuid.New(), UserID: userID, Balance: balance}, nil
}

func (m *memWallets) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	balance, ok := m.balances[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Wallet{ID: uuid.New(), UserID: userID, Balance: balance}, nil
}

func (m *memWallets) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	if m.refundErr != nil && m.refunding {
		return false, m.refundErr
	}
	balance, ok := m.balances[userID]
	if !ok {
		return false, nil
	}
	m.balances[userID] = balance.Add(amount)
	return true, nil
}

func (m *memWallets) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	balance, ok := m.balances[userID]
	if m.debitDenied || !ok || balance.LessThan(amount) {
		return false, nil
	}
	m.balances[userID] = balance.Sub(amount)
	// credits after the debit are refund attempts in these tests
	m.refunding = true
	return true, nil
}

func (m *memWallets) total() decimal.Decimal {
	sum := decimal.Zero
	for _, balance := range m.balances {
		sum = sum.Add(balance)
	}
	return sum
}

type memCatalog struct {
	stock      map[uuid.UUID]int
	available  map[uuid.UUID]bool
	restoreErr error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{stock: map[uuid.UUID]int{}, available: map[uuid.UUID]bool{}}
}

func (m *memCatalog) WithTx(tx *gorm.DB) catalog.Repository { return m }

func (m *memCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) GetPet(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memCatalog) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (m *memCatalog) PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pet, error) {
	return nil, nil
}

func (m *memCatalog) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	if m.stock[productID] < qty {
		return false, nil
	}
	m.stock[productID] -= qty
	return true, nil
}

func (m *memCatalog) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.stock[productID] += qty
	return nil
}

func (m *memCatalog) ReservePet(ctx context.Context, petID uuid.UUID) (bool, error) {
	if !m.available[petID] {
		return false, nil
	}
	m.available[petID] = false
	return true, nil
}

func (m *memCatalog) ReleasePet(ctx context.Context, petID uuid.UUID) error {
	m.available[petID] = true
	return nil
}

type memOrders struct {
	rows map[uuid.UUID]*models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{rows: map[uuid.UUID]*models.Order{}}
}

func (m *memOrders) WithTx(tx *gorm.DB) orders.Repository { return m }

func (m *memOrders) Create(ctx context.Context, order *models.Order) error {
	m.rows[order.ID] = order
	return nil
}

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (m *memOrders) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (m *memOrders) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (m *memOrders) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	return false, nil
}

type memTransactions struct {
	rows []*models.Transaction
}

func (m *memTransactions) WithTx(tx *gorm.DB) orders.TransactionRepository { return m }

func (m *memTransactions) Append(ctx context.Context, row *models.Transaction) error {
	m.rows = append(m.rows, row)
	return nil
}

func (m *memTransactions) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (m *memTransactions) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (m *memTransactions) byKind(kind enums.TransactionKind) []*models.Transaction {
	var out []*models.Transaction
	for _, row := range m.rows {
		if row.Kind == kind {
			out = append(out, row)
		}
	}
	return out
}

type passRunner struct{}

func (passRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type captureEmitter struct {
	events []outbox.DomainEvent
}

func (c *captureEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

// ---- fixture ---------------------------------------------------------

type fixture struct {
	svc          Service
	attempts     *memAttempts
	carts        *memCart
	wallets      *memWallets
	catalog      *memCatalog
	orders       *memOrders
	transactions *memTransactions
	emitter      *captureEmitter

	customerID uuid.UUID
	sellerID   uuid.UUID
	platformID uuid.UUID
	productID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fix := &fixture{
		attempts:     newMemAttempts(),
		carts:        &memCart{},
		wallets:      newMemWallets(),
		catalog:      newMemCatalog(),
		orders:       newMemOrders(),
		transactions: &memTransactions{},
		emitter:      &captureEmitter{},
		customerID:   uuid.New(),
		sellerID:     uuid.New(),
		platformID:   uuid.New(),
		productID:    uuid.New(),
	}

	// price 1000 at 10% off, quantity 2: subtotal 1800, free shipping,
	// 10% tax, total 1980
	fix.carts.resolved = &cart.ResolvedCart{
		CartID: uuid.New(),
		UserID: fix.customerID,
		Lines: []cart.ResolvedLine{{
			ItemID:          fix.productID,
			ItemType:        enums.ItemTypeProduct,
			SellerID:        fix.sellerID,
			Name:            "Deluxe Aquarium",
			Quantity:        2,
			UnitPrice:       decimal.NewFromInt(1000),
			DiscountPercent: decimal.NewFromInt(10),
			Stock:           5,
		}},
	}
	fix.catalog.stock[fix.productID] = 5
	fix.wallets.balances[fix.customerID] = decimal.NewFromInt(3000)
	fix.wallets.balances[fix.sellerID] = decimal.Zero
	fix.wallets.balances[fix.platformID] = decimal.Zero

	pricer := pricing.NewEngine(config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.10"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	})
	svc, err := NewService(ServiceParams{
		Attempts:     fix.attempts,
		Carts:        fix.carts,
		Accounts:     fix.wallets,
		Wallets:      fix.wallets,
		Catalog:      fix.catalog,
		Orders:       fix.orders,
		Transactions: fix.transactions,
		Pricer:       pricer,
		Runner:       passRunner{},
		Events:       fix.emitter,
		Settlement:   config.SettlementConfig{CommissionRate: decimal.RequireFromString("0.05")},
		Wallet:       config.WalletConfig{PlatformUserID: fix.platformID.String()},
	})
	require.NoError(t, err)
	fix.svc = svc
	return fix
}

func (f *fixture) checkout() CheckoutInput {
	return CheckoutInput{
		CustomerID: f.customerID,
		AttemptID:  uuid.New(),
		ShippingAddress: types.Address{
			Line1:      "44 Reef Road",
			City:       "Kochi",
			State:      "KL",
			PostalCode: "682001",
			Country:    "IN",
		},
		PaymentMethod: enums.PaymentMethodWallet,
	}
}

func requireSettleCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

// ---- tests -----------------------------------------------------------

func TestSettleHappyPath(t *testing.T) {
	fix := newFixture(t)

	result, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)
	require.False(t, result.Replayed)

	order := result.Order
	require.Equal(t, enums.OrderStatusCompleted, order.Status)
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	require.True(t, order.Subtotal.Equal(decimal.NewFromInt(1800)))
	require.True(t, order.Total.Equal(decimal.NewFromInt(1980)))
	require.Len(t, order.Items, 1)
	require.True(t, order.Items[0].PriceAtPurchase.Equal(decimal.NewFromInt(900)))

	// wallet movements: customer pays total, seller gets 95% of the
	// subtotal, the platform keeps the rest
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(1020)))
	require.True(t, fix.wallets.balances[fix.sellerID].Equal(decimal.NewFromInt(1710)))
	require.True(t, fix.wallets.balances[fix.platformID].Equal(decimal.NewFromInt(270)))

	// ledger: one seller share, one commission
	require.Len(t, fix.transactions.byKind(enums.TransactionKindSellerShare), 1)
	require.Len(t, fix.transactions.byKind(enums.TransactionKindCommission), 1)

	require.Equal(t, 3, fix.catalog.stock[fix.productID])
	require.True(t, fix.carts.cleared)

	attempt := fix.attempts.rows[fixAttemptID(t, fix)]
	require.Equal(t, enums.SettlementStatusCommitted, attempt.Status)
	require.Equal(t, order.ID, *attempt.OrderID)

	require.Len(t, fix.emitter.events, 1)
	require.Equal(t, enums.EventOrderSettled, fix.emitter.events[0].EventType)
}

// fixAttemptID returns the single registered attempt id.
func fixAttemptID(t *testing.T, fix *fixture) uuid.UUID {
	t.Helper()
	require.Len(t, fix.attempts.rows, 1)
	for id := range fix.attempts.rows {
		return id
	}
	return uuid.Nil
}

func TestSettleConservesMoney(t *testing.T) {
	fix := newFixture(t)
	before := fix.wallets.total()

	_, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)

	require.True(t, fix.wallets.total().Equal(before),
		"settlement must redistribute funds, not create or destroy them")
}

func TestSettleInsufficientBalance(t *testing.T) {
	fix := newFixture(t)
	fix.wallets.balances[fix.customerID] = decimal.NewFromInt(1500) // total is 1980

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeInsufficientBalance)

	// nothing moved
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(1500)))
	require.Equal(t, 5, fix.catalog.stock[fix.productID])
	require.Empty(t, fix.transactions.rows)
	require.False(t, fix.carts.cleared)
	require.Equal(t, enums.SettlementStatusAborted, fix.attempts.rows[input.AttemptID].Status)
}

func TestSettleTightBalanceSucceeds(t *testing.T) {
	fix := newFixture(t)
	fix.wallets.balances[fix.customerID] = decimal.NewFromInt(2000)

	result, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)
	require.True(t, result.Order.Total.Equal(decimal.NewFromInt(1980)))
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(20)))
}

func TestSettleOutOfStockBeforeDebitMovesNothing(t *testing.T) {
	fix := newFixture(t)
	// the resolved snapshot already shows the shortfall
	fix.carts.resolved.Lines[0].Stock = 1

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeOutOfStock)

	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(3000)))
	require.Equal(t, 5, fix.catalog.stock[fix.productID])
	require.Empty(t, fix.transactions.rows)
	require.Empty(t, fix.orders.rows)
	require.Empty(t, fix.emitter.events)
	require.False(t, fix.carts.cleared)
	require.Equal(t, enums.SettlementStatusAborted, fix.attempts.rows[input.AttemptID].Status)
}

func TestSettleDebitGuardStopsConcurrentDrain(t *testing.T) {
	fix := newFixture(t)
	// balance looks fine at validation time but the guarded debit loses
	fix.wallets.debitDenied = true

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeInsufficientBalance)

	require.Equal(t, 5, fix.catalog.stock[fix.productID])
	require.Empty(t, fix.transactions.rows)
	require.Equal(t, enums.SettlementStatusAborted, fix.attempts.rows[input.AttemptID].Status)
}

func TestSettleOutOfStockRefundsDebit(t *testing.T) {
	fix := newFixture(t)
	// stock sold out between cart resolution and the claim
	fix.catalog.stock[fix.productID] = 1 // cart wants 2

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeOutOfStock)

	// the debit was compensated in full
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(3000)))
	require.Equal(t, 1, fix.catalog.stock[fix.productID])

	refunds := fix.transactions.byKind(enums.TransactionKindRefund)
	require.Len(t, refunds, 1)
	require.True(t, refunds[0].Amount.Equal(decimal.NewFromInt(1980)))

	require.Equal(t, enums.SettlementStatusAborted, fix.attempts.rows[input.AttemptID].Status)
	require.Empty(t, fix.orders.rows)

	require.Len(t, fix.emitter.events, 1)
	require.Equal(t, enums.EventSettlementCompensated, fix.emitter.events[0].EventType)
}

func TestSettlePartialClaimReleasedOnFailure(t *testing.T) {
	fix := newFixture(t)

	// second line is a pet that was sold out from under the cart
	petID := uuid.New()
	fix.catalog.available[petID] = false
	fix.carts.resolved.Lines = append(fix.carts.resolved.Lines, cart.ResolvedLine{
		ItemID:    petID,
		ItemType:  enums.ItemTypePet,
		SellerID:  fix.sellerID,
		Name:      "Clementine",
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(400),
		Stock:     1,
	})

	_, err := fix.svc.Settle(context.Background(), fix.checkout())
	requireSettleCode(t, err, pkgerrors.CodeOutOfStock)

	// the product claim from the first line was rolled back
	require.Equal(t, 5, fix.catalog.stock[fix.productID])
}

func TestSettleRefundFailureLeavesAttemptPending(t *testing.T) {
	fix := newFixture(t)
	fix.catalog.stock[fix.productID] = 0
	fix.wallets.refundErr = fmt.Errorf("wallet store down")

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeDependency)

	// pending, not aborted: an operator has to reconcile the refund
	require.Equal(t, enums.SettlementStatusPending, fix.attempts.rows[input.AttemptID].Status)
}

func TestSettleReplaysCommittedAttempt(t *testing.T) {
	fix := newFixture(t)
	input := fix.checkout()

	first, err := fix.svc.Settle(context.Background(), input)
	require.NoError(t, err)

	// the wallet no longer covers a second purchase, yet the replay
	// succeeds without moving any money
	second, err := fix.svc.Settle(context.Background(), input)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.Order.ID, second.Order.ID)
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(1020)))
	require.Equal(t, 3, fix.catalog.stock[fix.productID])
}

func TestSettleRejectsForeignAttemptToken(t *testing.T) {
	fix := newFixture(t)
	input := fix.checkout()

	_, err := fix.svc.Settle(context.Background(), input)
	require.NoError(t, err)

	stolen := input
	stolen.CustomerID = uuid.New()
	_, err = fix.svc.Settle(context.Background(), stolen)
	requireSettleCode(t, err, pkgerrors.CodeForbidden)
}

func TestSettleRejectsAbortedTokenReuse(t *testing.T) {
	fix := newFixture(t)
	fix.wallets.balances[fix.customerID] = decimal.Zero

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeInsufficientBalance)

	// topping up does not resurrect a burned token
	fix.wallets.balances[fix.customerID] = decimal.NewFromInt(5000)
	_, err = fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeIdempotency)
}

func TestSettleEmptyCart(t *testing.T) {
	fix := newFixture(t)
	fix.carts.err = pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")

	input := fix.checkout()
	_, err := fix.svc.Settle(context.Background(), input)
	requireSettleCode(t, err, pkgerrors.CodeEmptyCart)
	require.Equal(t, enums.SettlementStatusAborted, fix.attempts.rows[input.AttemptID].Status)
}

func TestSettleValidatesInput(t *testing.T) {
	fix := newFixture(t)

	missingToken := fix.checkout()
	missingToken.AttemptID = uuid.Nil
	_, err := fix.svc.Settle(context.Background(), missingToken)
	requireSettleCode(t, err, pkgerrors.CodeValidation)

	badAddress := fix.checkout()
	badAddress.ShippingAddress.City = ""
	_, err = fix.svc.Settle(context.Background(), badAddress)
	requireSettleCode(t, err, pkgerrors.CodeValidation)

	badMethod := fix.checkout()
	badMethod.PaymentMethod = "barter"
	_, err = fix.svc.Settle(context.Background(), badMethod)
	requireSettleCode(t, err, pkgerrors.CodeValidation)
}

func TestSettleMultiSellerSplit(t *testing.T) {
	fix := newFixture(t)

	otherSeller := uuid.New()
	otherProduct := uuid.New()
	fix.catalog.stock[otherProduct] = 3
	fix.wallets.balances[otherSeller] = decimal.Zero
	fix.carts.resolved.Lines = append(fix.carts.resolved.Lines, cart.ResolvedLine{
		ItemID:    otherProduct,
		ItemType:  enums.ItemTypeProduct,
		SellerID:  otherSeller,
		Name:      "Cat Tree",
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(200),
		Stock:     3,
	})
	fix.wallets.balances[fix.customerID] = decimal.NewFromInt(5000)

	result, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)

	// subtotal 2000: 1800 from the first seller's line, 200 from the
	// second; each seller gets 95% of their own lines
	require.True(t, fix.wallets.balances[fix.sellerID].Equal(decimal.NewFromInt(1710)))
	require.True(t, fix.wallets.balances[otherSeller].Equal(decimal.NewFromInt(190)))
	require.Len(t, fix.transactions.byKind(enums.TransactionKindSellerShare), 2)

	// the primary seller on the order is the first line's seller
	require.Equal(t, fix.sellerID, result.Order.SellerID)
}

func TestSettleCreditsUnknownSellerWallet(t *testing.T) {
	fix := newFixture(t)
	delete(fix.wallets.balances, fix.sellerID)

	_, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)
	require.True(t, fix.wallets.balances[fix.sellerID].Equal(decimal.NewFromInt(1710)))
}

func TestSettlePayoutSurvivesWalletCreateRace(t *testing.T) {
	fix := newFixture(t)
	// the seller wallet does not exist yet and a concurrent settlement
	// wins the create; the payout retries the credit on the fresh row
	delete(fix.wallets.balances, fix.sellerID)
	fix.wallets.createConflict = true

	_, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)
	require.True(t, fix.wallets.balances[fix.sellerID].Equal(decimal.NewFromInt(1710)))
	require.Len(t, fix.transactions.byKind(enums.TransactionKindSellerShare), 1)
}

func TestSettleFirstCheckoutSeedsStartingBalance(t *testing.T) {
	fix := newFixture(t)
	// first-ever action is checkout: no wallet row yet, but the
	// configured starting balance covers the total
	delete(fix.wallets.balances, fix.customerID)
	fix.wallets.starting = decimal.NewFromInt(2500)

	result, err := fix.svc.Settle(context.Background(), fix.checkout())
	require.NoError(t, err)
	require.True(t, result.Order.Total.Equal(decimal.NewFromInt(1980)))
	require.True(t, fix.wallets.balances[fix.customerID].Equal(decimal.NewFromInt(520)))
}
