package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  item_type TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, item_id)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func TestGetOrCreateByUserIsIdempotent(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	first, err := repo.GetOrCreateByUser(ctx, userID)
	require.NoError(t, err)

	second, err := repo.GetOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestItemLifecycle(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()

	cart, err := repo.GetOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)

	itemID := uuid.New()
	require.NoError(t, repo.CreateItem(ctx, &models.CartItem{
		ID:       uuid.New(),
		CartID:   cart.ID,
		ItemID:   itemID,
		ItemType: enums.ItemTypeProduct,
		Quantity: 2,
	}))

	item, err := repo.FindItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	require.Equal(t, 2, item.Quantity)

	require.NoError(t, repo.UpdateItemQuantity(ctx, item.ID, 5))
	item, err = repo.FindItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	require.Equal(t, 5, item.Quantity)

	removed, err := repo.DeleteItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.DeleteItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestDuplicateItemRowRejected(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()

	cart, err := repo.GetOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)

	itemID := uuid.New()
	row := func() *models.CartItem {
		return &models.CartItem{
			ID:       uuid.New(),
			CartID:   cart.ID,
			ItemID:   itemID,
			ItemType: enums.ItemTypeProduct,
			Quantity: 1,
		}
	}
	require.NoError(t, repo.CreateItem(ctx, row()))
	require.Error(t, repo.CreateItem(ctx, row()))
}

func TestClearRemovesAllRows(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()

	cart, err := repo.GetOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)

	for range [3]struct{}{} {
		require.NoError(t, repo.CreateItem(ctx, &models.CartItem{
			ID:       uuid.New(),
			CartID:   cart.ID,
			ItemID:   uuid.New(),
			ItemType: enums.ItemTypeProduct,
			Quantity: 1,
		}))
	}

	require.NoError(t, repo.Clear(ctx, cart.ID))

	reloaded, err := repo.FindByUser(ctx, cart.UserID)
	require.NoError(t, err)
	require.Empty(t, reloaded.Items)
}
