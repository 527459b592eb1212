package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/internal/catalog"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
)

// ResolvedLine is one cart line joined against the live catalog.
// Stock is the units the catalog reported at resolution time; an
// available pet counts as one.
type ResolvedLine struct {
	ItemID          uuid.UUID       `json:"item_id"`
	ItemType        enums.ItemType  `json:"item_type"`
	SellerID        uuid.UUID       `json:"seller_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Stock           int             `json:"stock"`
}

// ResolvedCart is a cart with every line resolved against the catalog.
// Lines whose referenced item vanished or went inactive are removed
// from the cart during resolution and counted in Dropped.
type ResolvedCart struct {
	CartID  uuid.UUID      `json:"cart_id"`
	UserID  uuid.UUID      `json:"user_id"`
	Lines   []ResolvedLine `json:"lines"`
	Dropped int            `json:"dropped"`
}

// AddItemInput describes an add-to-cart request.
type AddItemInput struct {
	UserID   uuid.UUID
	ItemID   uuid.UUID
	ItemType enums.ItemType
	Quantity int
}

// Service owns cart mutation and resolution. All operations are scoped
// to the owning user; there is no cross-user cart access.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ResolvedCart, error)
	AddItem(ctx context.Context, input AddItemInput) (*ResolvedCart, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ResolvedCart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*ResolvedCart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Resolve(ctx context.Context, userID uuid.UUID) (*ResolvedCart, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo    Repository
	Catalog catalog.Repository
	Logger  *logger.Logger
}

// NewService wires a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		logg:    params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ResolvedCart, error) {
	resolved, err := s.Resolve(ctx, userID)
	if err != nil {
		// an empty cart is a valid read result
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeEmptyCart {
			cart, repoErr := s.repo.GetOrCreateByUser(ctx, userID)
			if repoErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, repoErr, "load cart")
			}
			return &ResolvedCart{CartID: cart.ID, UserID: userID}, nil
		}
		return nil, err
	}
	return resolved, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*ResolvedCart, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !input.ItemType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid item type %q", input.ItemType))
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if err := s.verifyListing(ctx, input.ItemID, input.ItemType); err != nil {
		return nil, err
	}
	if input.ItemType == enums.ItemTypePet && input.Quantity != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pets can only be added with quantity 1")
	}

	cart, err := s.repo.GetOrCreateByUser(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, input.ItemID)
	switch {
	case err == nil:
		// repeated adds merge quantities; pets stay at one
		merged := existing.Quantity + input.Quantity
		if input.ItemType == enums.ItemTypePet {
			merged = 1
		}
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, merged); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:       uuid.New(),
			CartID:   cart.ID,
			ItemID:   input.ItemID,
			ItemType: input.ItemType,
			Quantity: input.Quantity,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart item")
	}

	return s.Resolve(ctx, input.UserID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ResolvedCart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart item")
	}
	if item.ItemType == enums.ItemTypePet && quantity != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pets can only be held with quantity 1")
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.Resolve(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*ResolvedCart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Resolve joins every cart line against the live catalog. Lines whose
// item no longer exists, is inactive, or is an already-sold pet are
// deleted from the cart rather than surfaced. Returns CodeEmptyCart
// when nothing valid remains.
func (s *service) Resolve(ctx context.Context, userID uuid.UUID) (*ResolvedCart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	var productIDs, petIDs []uuid.UUID
	for _, item := range cart.Items {
		switch item.ItemType {
		case enums.ItemTypeProduct:
			productIDs = append(productIDs, item.ItemID)
		case enums.ItemTypePet:
			petIDs = append(petIDs, item.ItemID)
		}
	}

	products := map[uuid.UUID]models.Product{}
	if len(productIDs) > 0 {
		rows, err := s.catalog.ProductsByIDs(ctx, productIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve products")
		}
		for _, row := range rows {
			products[row.ID] = row
		}
	}
	pets := map[uuid.UUID]models.Pet{}
	if len(petIDs) > 0 {
		rows, err := s.catalog.PetsByIDs(ctx, petIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve pets")
		}
		for _, row := range rows {
			pets[row.ID] = row
		}
	}

	resolved := &ResolvedCart{CartID: cart.ID, UserID: userID}
	var stale []uuid.UUID
	for _, item := range cart.Items {
		switch item.ItemType {
		case enums.ItemTypeProduct:
			product, ok := products[item.ItemID]
			if !ok || !product.IsActive {
				stale = append(stale, item.ID)
				continue
			}
			resolved.Lines = append(resolved.Lines, ResolvedLine{
				ItemID:          product.ID,
				ItemType:        enums.ItemTypeProduct,
				SellerID:        product.SellerID,
				Name:            product.Name,
				Quantity:        item.Quantity,
				UnitPrice:       product.Price,
				DiscountPercent: product.DiscountPercent,
				Stock:           product.Stock,
			})
		case enums.ItemTypePet:
			pet, ok := pets[item.ItemID]
			if !ok || !pet.Available {
				stale = append(stale, item.ID)
				continue
			}
			resolved.Lines = append(resolved.Lines, ResolvedLine{
				ItemID:          pet.ID,
				ItemType:        enums.ItemTypePet,
				SellerID:        pet.SellerID,
				Name:            pet.Name,
				Quantity:        1,
				UnitPrice:       pet.Price,
				DiscountPercent: pet.DiscountPercent,
				Stock:           1,
			})
		default:
			stale = append(stale, item.ID)
		}
	}

	if len(stale) > 0 {
		if err := s.repo.DeleteItems(ctx, stale); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop stale cart items")
		}
		resolved.Dropped = len(stale)
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("dropped %d stale cart items for user %s", len(stale), userID))
		}
	}
	if len(resolved.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no purchasable items")
	}
	return resolved, nil
}

func (s *service) verifyListing(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) error {
	switch itemType {
	case enums.ItemTypeProduct:
		product, err := s.catalog.GetProduct(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is no longer available")
		}
	case enums.ItemTypePet:
		pet, err := s.catalog.GetPet(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pet")
		}
		if !pet.Available {
			return pkgerrors.New(pkgerrors.CodeConflict, "pet has already been sold")
		}
	}
	return nil
}
