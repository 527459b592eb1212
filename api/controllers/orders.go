package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/petverse/petverse-backend/api/responses"
	"github.com/petverse/petverse-backend/api/validators"
	orderssvc "github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/pkg/db/models"
	"github.com/petverse/petverse-backend/pkg/enums"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Subtotal      string              `json:"subtotal"`
	ShippingFee   string              `json:"shipping_fee"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	Items         []checkoutItemReply `json:"items"`
}

// ListCustomerOrders returns the caller's order history, newest first.
func ListCustomerOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListByCustomer(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders))
	}
}

// ListSellerOrders returns orders where the caller is the primary seller.
func ListSellerOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListBySeller(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders))
	}
}

// UpdateOrderStatus moves a seller's order forward along the
// fulfillment progression.
func UpdateOrderStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order id"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderssvc.UpdateStatusInput{
			OrderID:  orderID,
			SellerID: userID,
			Next:     next,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

func newOrderListResponse(orders []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, newOrderResponse(order))
	}
	return out
}

func newOrderResponse(order models.Order) orderResponse {
	reply := orderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Subtotal:      order.Subtotal.StringFixed(2),
		ShippingFee:   order.ShippingFee.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Total:         order.Total.StringFixed(2),
	}
	for _, item := range order.Items {
		reply.Items = append(reply.Items, newCheckoutItemReply(item))
	}
	return reply
}
