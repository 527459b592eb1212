package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/petverse/petverse-backend/api/responses"
	"github.com/petverse/petverse-backend/api/validators"
	"github.com/petverse/petverse-backend/internal/settlement"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
	"github.com/petverse/petverse-backend/pkg/types"
)

type checkoutRequest struct {
	AttemptID       uuid.UUID     `json:"attempt_id" validate:"required"`
	PaymentMethod   string        `json:"payment_method" validate:"required,oneof=wallet upi credit-card"`
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
}

type checkoutResponse struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	Status      enums.OrderStatus   `json:"status"`
	Subtotal    string              `json:"subtotal"`
	ShippingFee string              `json:"shipping_fee"`
	Tax         string              `json:"tax"`
	Total       string              `json:"total"`
	Replayed    bool                `json:"replayed"`
	Items       []checkoutItemReply `json:"items"`
}

type checkoutItemReply struct {
	ItemID          uuid.UUID `json:"item_id"`
	Name            string    `json:"name"`
	Quantity        int       `json:"quantity"`
	PriceAtPurchase string    `json:"price_at_purchase"`
}

// Checkout settles the caller's cart: debit, stock claim, fund split,
// order snapshot. Safe to retry with the same attempt_id.
func Checkout(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method"))
			return
		}

		result, err := svc.Settle(r.Context(), settlement.CheckoutInput{
			CustomerID:      userID,
			AttemptID:       payload.AttemptID,
			ShippingAddress: payload.ShippingAddress,
			PaymentMethod:   method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, newCheckoutResponse(result))
	}
}

func newCheckoutResponse(result *settlement.Result) checkoutResponse {
	order := result.Order
	reply := checkoutResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Subtotal:    order.Subtotal.StringFixed(2),
		ShippingFee: order.ShippingFee.StringFixed(2),
		Tax:         order.Tax.StringFixed(2),
		Total:       order.Total.StringFixed(2),
		Replayed:    result.Replayed,
	}
	for _, item := range order.Items {
		reply.Items = append(reply.Items, newCheckoutItemReply(item))
	}
	return reply
}

func newCheckoutItemReply(item models.OrderItem) checkoutItemReply {
	return checkoutItemReply{
		ItemID:          item.ItemID,
		Name:            item.Name,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
	}
}
