package handlers

import (
	"net/http"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest"
	"github.com/go-chi/chi/v5"
)

// POST /api/sessions
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.StartSession(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, SessionEnvelope{Success: true, Session: toSessionResponse(sess)})
}

// GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.GetSession(r.Context(), chi.URLParam(r, "id"))
	h.writeSession(w, sess, err)
}

// POST /api/sessions/{id}/items
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var body domain.CartItem
	if err := rest.DecodeJSON(w, r, &body); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	item, err := domain.NewCartItem(body.Name, body.Price)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	sess, err := h.checkout.AddItem(r.Context(), chi.URLParam(r, "id"), item)
	h.writeSession(w, sess, err)
}

// DELETE /api/sessions/{id}/items/{name}
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	h.writeSession(w, sess, err)
}

// POST /api/sessions/{id}/checkout
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := rest.DecodeJSON(w, r, &req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	sess, err := h.checkout.Submit(r.Context(), chi.URLParam(r, "id"), req.CustomerDetails)
	h.writeSession(w, sess, err)
}

// POST /api/sessions/{id}/payment
func (h *Handlers) CompletePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentResultRequest
	if err := rest.DecodeJSON(w, r, &req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	cmd := services.PaymentResultCommand{Failed: req.Failed, Reason: req.Reason}
	if !req.Failed {
		cmd.Confirmation = &domain.PaymentConfirmation{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
		}
	}

	sess, err := h.checkout.CompletePayment(r.Context(), chi.URLParam(r, "id"), cmd)
	h.writeSession(w, sess, err)
}

// POST /api/sessions/{id}/retry
func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.Retry(r.Context(), chi.URLParam(r, "id"))
	h.writeSession(w, sess, err)
}

// writeSession answers 200 for handled checkout failures, carrying the
// ERRORED session so the client can offer a retry.
func (h *Handlers) writeSession(w http.ResponseWriter, sess *domain.CheckoutSession, err error) {
	if err == nil {
		rest.WriteJSON(w, http.StatusOK, SessionEnvelope{Success: true, Session: toSessionResponse(sess)})
		return
	}

	svcErr := application.ToServiceError(err)
	if !svcErr.Handled() {
		rest.WriteError(w, svcErr, h.logger)
		return
	}

	h.logger.Info("checkout step failed", "code", svcErr.Code, "error", svcErr.Err)
	rest.WriteJSON(w, http.StatusOK, SessionEnvelope{
		Error:   svcErr.Message,
		Code:    svcErr.Code,
		Session: toSessionResponse(sess),
	})
}
