package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
)

func setupAttemptsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	attempts := `
CREATE TABLE IF NOT EXISTS settlement_attempts (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  order_id TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  fail_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(attempts).Error)
	return db
}

func registerPendingAttempt(t *testing.T, repo AttemptRepository) *models.SettlementAttempt {
	t.Helper()
	attempt := &models.SettlementAttempt{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.SettlementStatusPending,
	}
	require.NoError(t, repo.Register(context.Background(), attempt))
	return attempt
}

func TestRegisterRejectsDuplicateToken(t *testing.T) {
	repo := NewAttemptRepository(setupAttemptsTestDB(t))
	attempt := registerPendingAttempt(t, repo)

	dupe := &models.SettlementAttempt{
		ID:         attempt.ID,
		CustomerID: attempt.CustomerID,
		Status:     enums.SettlementStatusPending,
	}
	require.Error(t, repo.Register(context.Background(), dupe))
}

func TestMarkCommittedRecordsOutcome(t *testing.T) {
	repo := NewAttemptRepository(setupAttemptsTestDB(t))
	ctx := context.Background()
	attempt := registerPendingAttempt(t, repo)

	orderID := uuid.New()
	total := decimal.RequireFromString("1980.00")
	require.NoError(t, repo.MarkCommitted(ctx, attempt.ID, orderID, total))

	loaded, err := repo.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, enums.SettlementStatusCommitted, loaded.Status)
	require.Equal(t, orderID, *loaded.OrderID)
	require.True(t, loaded.Total.Equal(total))
}

func TestLateAbortDoesNotClobberCommittedAttempt(t *testing.T) {
	repo := NewAttemptRepository(setupAttemptsTestDB(t))
	ctx := context.Background()
	attempt := registerPendingAttempt(t, repo)

	orderID := uuid.New()
	require.NoError(t, repo.MarkCommitted(ctx, attempt.ID, orderID, decimal.RequireFromString("1980.00")))

	// a straggling abort loses against the committed row
	require.NoError(t, repo.MarkAborted(ctx, attempt.ID, "stale failure"))

	loaded, err := repo.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, enums.SettlementStatusCommitted, loaded.Status)
	require.Equal(t, orderID, *loaded.OrderID)
	require.Nil(t, loaded.FailReason)
}

func TestCommitAfterAbortIsNoOp(t *testing.T) {
	repo := NewAttemptRepository(setupAttemptsTestDB(t))
	ctx := context.Background()
	attempt := registerPendingAttempt(t, repo)

	require.NoError(t, repo.MarkAborted(ctx, attempt.ID, "insufficient balance"))
	require.NoError(t, repo.MarkCommitted(ctx, attempt.ID, uuid.New(), decimal.RequireFromString("1980.00")))

	loaded, err := repo.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.Equal(t, enums.SettlementStatusAborted, loaded.Status)
	require.Nil(t, loaded.OrderID)
	require.NotNil(t, loaded.FailReason)
	require.Equal(t, "insufficient balance", *loaded.FailReason)
}
