package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/momtazchem/commerce-backend/api/responses"
	"github.com/momtazchem/commerce-backend/api/validators"
	"github.com/momtazchem/commerce-backend/internal/wallet"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
)

type processRechargeRequest struct {
	AdminID    uuid.UUID `json:"admin_id" validate:"required"`
	AdminNotes string    `json:"admin_notes" validate:"max=2000"`
}

// WalletBalance returns a customer's wallet with its recent movements.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "customerID"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required"))
			return
		}
		customerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		balance, err := svc.Balance(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// WalletRechargeProcess completes a pending recharge request and
// credits the customer's wallet.
func WalletRechargeProcess(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "requestID"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request id is required"))
			return
		}
		requestID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		var body processRechargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ProcessRecharge(r.Context(), wallet.ProcessRechargeInput{
			RequestID:  requestID,
			AdminID:    body.AdminID,
			AdminNotes: body.AdminNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
