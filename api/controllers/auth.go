package controllers

import (
	"net/http"

	"github.com/petverse/petverse-backend/api/responses"
	"github.com/petverse/petverse-backend/api/validators"
	authsvc "github.com/petverse/petverse-backend/internal/auth"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
	"github.com/petverse/petverse-backend/pkg/logger"
)

// Login exchanges credentials for a bearer token.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
