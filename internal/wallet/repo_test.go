package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// balance must be NUMERIC so the >= guard compares numerically
	schema := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedWallet(t *testing.T, repo Repository, balance string) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: decimal.RequireFromString(balance),
	}))
	return userID
}

func requireBalance(t *testing.T, repo Repository, userID uuid.UUID, want string) {
	t.Helper()
	wallet, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, wallet.Balance.Equal(decimal.RequireFromString(want)),
		"balance = %s, want %s", wallet.Balance, want)
}

func TestDebitIfSufficientGuardsBalance(t *testing.T) {
	repo := NewRepository(setupWalletTestDB(t))
	ctx := context.Background()
	userID := seedWallet(t, repo, "100.00")

	ok, err := repo.DebitIfSufficient(ctx, userID, decimal.RequireFromString("60.00"))
	require.NoError(t, err)
	require.True(t, ok)
	requireBalance(t, repo, userID, "40.00")

	// second debit exceeds the remainder; the row must not change
	ok, err = repo.DebitIfSufficient(ctx, userID, decimal.RequireFromString("60.00"))
	require.NoError(t, err)
	require.False(t, ok)
	requireBalance(t, repo, userID, "40.00")
}

func TestDebitExactBalanceDrainsToZero(t *testing.T) {
	repo := NewRepository(setupWalletTestDB(t))
	userID := seedWallet(t, repo, "250.50")

	ok, err := repo.DebitIfSufficient(context.Background(), userID, decimal.RequireFromString("250.50"))
	require.NoError(t, err)
	require.True(t, ok)
	requireBalance(t, repo, userID, "0")
}

func TestDebitMissingWalletReturnsFalse(t *testing.T) {
	repo := NewRepository(setupWalletTestDB(t))

	ok, err := repo.DebitIfSufficient(context.Background(), uuid.New(), decimal.RequireFromString("1.00"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreditAccumulates(t *testing.T) {
	repo := NewRepository(setupWalletTestDB(t))
	ctx := context.Background()
	userID := seedWallet(t, repo, "10.00")

	ok, err := repo.Credit(ctx, userID, decimal.RequireFromString("500.25"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Credit(ctx, userID, decimal.RequireFromString("0.75"))
	require.NoError(t, err)
	require.True(t, ok)
	requireBalance(t, repo, userID, "511.00")
}

func TestCreditMissingWalletReturnsFalse(t *testing.T) {
	repo := NewRepository(setupWalletTestDB(t))

	ok, err := repo.Credit(context.Background(), uuid.New(), decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	require.False(t, ok)
}
