package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/momtazchem/commerce-backend/api/responses"
	"github.com/momtazchem/commerce-backend/api/validators"
	"github.com/momtazchem/commerce-backend/internal/review"
	"github.com/momtazchem/commerce-backend/pkg/enums"
	pkgerrors "github.com/momtazchem/commerce-backend/pkg/errors"
	"github.com/momtazchem/commerce-backend/pkg/logger"
)

type approveReviewRequest struct {
	ReviewerID     uuid.UUID       `json:"reviewer_id" validate:"required"`
	Notes          string          `json:"notes" validate:"max=2000"`
	OverpaidAmount decimal.Decimal `json:"overpaid_amount"`
}

type rejectReviewRequest struct {
	ReviewerID uuid.UUID `json:"reviewer_id" validate:"required"`
	Reason     string    `json:"reason" validate:"required,max=2000"`
	Category   string    `json:"category" validate:"required"`
}

// ReviewApprove confirms a payment receipt and advances the order to
// the warehouse queue.
func ReviewApprove(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approveReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.OverpaidAmount.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "overpaid amount must not be negative"))
			return
		}

		confirmation, err := svc.Approve(r.Context(), review.ApproveInput{
			OrderID:        orderID,
			ReviewerID:     body.ReviewerID,
			Notes:          body.Notes,
			OverpaidAmount: body.OverpaidAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}

// ReviewReject returns an order to its payment grace period with the
// reviewer's reason attached.
func ReviewReject(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Reject(r.Context(), review.RejectInput{
			OrderID:    orderID,
			ReviewerID: body.ReviewerID,
			Reason:     body.Reason,
			Category:   enums.RejectionCategory(body.Category),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}

// ReviewsPending lists orders waiting for financial review, oldest
// submission first.
func ReviewsPending(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		orders, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": orders, "count": len(orders)})
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
