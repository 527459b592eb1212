package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
)

// Repository exposes catalog reads plus the conditional stock mutations
// settlement relies on. Stock and availability are only ever changed by
// guarded single-statement updates so they cannot go negative or
// double-sell under concurrency.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetPet(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pet, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
	ReservePet(ctx context.Context, petID uuid.UUID) (bool, error)
	ReleasePet(ctx context.Context, petID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetPet(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *repository) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) PetsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var pets []models.Pet
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&pets).Error; err != nil {
		return nil, err
	}
	return pets, nil
}

// DecrementStock subtracts qty iff enough stock remains. Returns false
// without error when the guard fails.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestoreStock adds qty back after a failed settlement.
func (r *repository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

// ReservePet flips availability iff the pet is still available. Returns
// false without error when it was already taken.
func (r *repository) ReservePet(ctx context.Context, petID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ? AND available", petID).
		UpdateColumn("available", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleasePet makes a reserved pet available again.
func (r *repository) ReleasePet(ctx context.Context, petID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ?", petID).
		UpdateColumn("available", true).Error
}
