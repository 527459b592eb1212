package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
)

// TransactionRepository appends and reads the fund-transfer ledger.
// There are no update or delete operations; corrections are new rows.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Append(ctx context.Context, row *models.Transaction) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository returns a transaction repository bound to the provided database.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) Append(ctx context.Context, row *models.Transaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *transactionRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("from_user = ? OR to_user = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
