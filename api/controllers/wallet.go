package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/api/responses"
	"github.com/petverse/petverse-backend/api/validators"
	walletsvc "github.com/petverse/petverse-backend/internal/wallet"
	"github.com/petverse/petverse-backend/pkg/db/models"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
)

type topupRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type walletResponse struct {
	WalletID uuid.UUID `json:"wallet_id"`
	UserID   uuid.UUID `json:"user_id"`
	Balance  string    `json:"balance"`
}

// GetWallet returns the caller's wallet, creating it on first read.
func GetWallet(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wallet, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(wallet))
	}
}

// Topup credits the caller's wallet.
func Topup(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload topupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.AddFunds(r.Context(), userID, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(wallet))
	}
}

func newWalletResponse(wallet *models.Wallet) walletResponse {
	return walletResponse{
		WalletID: wallet.ID,
		UserID:   wallet.UserID,
		Balance:  wallet.Balance.StringFixed(2),
	}
}
