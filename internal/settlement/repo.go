package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
)

// AttemptRepository persists settlement attempt rows. The attempt id is
// the client-supplied token; the primary key constraint is what makes
// checkout idempotent.
type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	Register(ctx context.Context, attempt *models.SettlementAttempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SettlementAttempt, error)
	MarkCommitted(ctx context.Context, id, orderID uuid.UUID, total decimal.Decimal) error
	MarkAborted(ctx context.Context, id uuid.UUID, reason string) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository returns an attempt repository bound to the provided database.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository {
	if tx == nil {
		return r
	}
	return &attemptRepository{db: tx}
}

func (r *attemptRepository) Register(ctx context.Context, attempt *models.SettlementAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SettlementAttempt, error) {
	var attempt models.SettlementAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// MarkCommitted and MarkAborted only move pending rows. A late abort
// racing a commit becomes a no-op instead of clobbering the outcome.
func (r *attemptRepository) MarkCommitted(ctx context.Context, id, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.SettlementAttempt{}).
		Where("id = ? AND status = ?", id, enums.SettlementStatusPending).
		Updates(map[string]interface{}{
			"status":   enums.SettlementStatusCommitted,
			"order_id": orderID,
			"total":    total,
		}).Error
}

func (r *attemptRepository) MarkAborted(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.SettlementAttempt{}).
		Where("id = ? AND status = ?", id, enums.SettlementStatusPending).
		Updates(map[string]interface{}{
			"status":      enums.SettlementStatusAborted,
			"fail_reason": reason,
		}).Error
}
