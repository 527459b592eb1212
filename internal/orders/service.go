package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
	"github.com/petverse/petverse-backend/pkg/outbox"
	"github.com/petverse/petverse-backend/pkg/outbox/payloads"
)

// Service exposes order history reads and the seller status updates.
type Service interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
}

// UpdateStatusInput identifies the transition a seller requests.
type UpdateStatusInput struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
	Next     enums.OrderStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	runner txRunner
	events outboxEmitter
	logg   *logger.Logger
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo   Repository
	Runner txRunner
	Events outboxEmitter
	Logger *logger.Logger
}

// NewService wires an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	return &service{
		repo:   params.Repo,
		runner: params.Runner,
		events: params.Events,
		logg:   params.Logger,
	}, nil
}

func (s *service) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return orders, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	orders, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Next))
	}

	order, err := s.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if input.SellerID != uuid.Nil && order.SellerID != input.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
	}
	if !order.Status.CanTransitionTo(input.Next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Next))
	}

	from := order.Status
	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.repo.WithTx(tx).UpdateStatusFrom(ctx, order.ID, from, input.Next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !updated {
			// a concurrent transition won the race
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				SellerID:   order.SellerID,
				FromStatus: from,
				ToStatus:   input.Next,
				ChangedAt:  time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, fmt.Sprintf("order status %s -> %s", from, input.Next))
	}

	order.Status = input.Next
	return order, nil
}

// NewOrderNumber builds a human-scannable unique order number.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PV-%s-%s", now.UTC().Format("20060102"), suffix)
}
