package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/driftkings-bg/driftkings-backend/api/middleware"
	"github.com/driftkings-bg/driftkings-backend/api/responses"
	"github.com/driftkings-bg/driftkings-backend/api/validators"
	"github.com/driftkings-bg/driftkings-backend/internal/checkout"
	pkgerrors "github.com/driftkings-bg/driftkings-backend/pkg/errors"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
)

// CreatePaymentIntent turns the submitted cart into a Stripe payment intent
// for the authenticated user.
func CreatePaymentIntent(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
			return
		}
		email := middleware.EmailFromContext(r.Context())

		var body checkout.CreatePaymentIntentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreatePaymentIntent(r.Context(), userID, email, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
