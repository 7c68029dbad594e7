package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest"
)

// POST /api/orders
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := rest.DecodeJSON(w, r, &req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), services.CreateOrderCommand{
		Amount:   req.Amount,
		Customer: req.CustomerDetails,
		Items:    req.Items,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// POST /api/payments/verify
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var conf domain.PaymentConfirmation
	if err := rest.DecodeJSON(w, r, &conf); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	result, err := h.verifier.Verify(r.Context(), conf)
	if err != nil {
		svcErr := application.ToServiceError(err)
		if !svcErr.Handled() {
			rest.WriteError(w, svcErr, h.logger)
			return
		}
		rest.WriteJSON(w, http.StatusOK, VerifyResponse{Error: svcErr.Message, Code: svcErr.Code})
		return
	}

	if !result.Valid {
		rest.WriteJSON(w, http.StatusOK, VerifyResponse{Error: result.Reason, Code: application.ErrCodeVerificationFailed})
		return
	}
	rest.WriteJSON(w, http.StatusOK, VerifyResponse{Success: true, PaymentID: result.PaymentID})
}

// POST /api/notifications/order always answers 200; delivery is detached.
func (h *Handlers) NotifyOrder(w http.ResponseWriter, r *http.Request) {
	defer rest.WriteJSON(w, http.StatusOK, Ack{Success: true})

	var req NotifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.logger.Warn("ignoring malformed notification request", "error", err)
		return
	}

	event, err := h.notificationEvent(req)
	if err != nil {
		h.logger.Warn("ignoring invalid notification request",
			"payment_id", req.PaymentID,
			"error", err)
		return
	}

	h.notifier.Notify(event)
}

func (h *Handlers) notificationEvent(req NotifyRequest) (domain.NotificationEvent, error) {
	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		return domain.NotificationEvent{}, domain.NewMissingRequiredFieldError("paymentId")
	}
	if len(req.Items) == 0 {
		return domain.NotificationEvent{}, domain.ErrEmptyCart
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := domain.NewCartItem(it.Name, it.Price)
		if err != nil {
			return domain.NotificationEvent{}, err
		}
		items = append(items, item)
	}

	return domain.NewNotificationEvent(
		strings.TrimSpace(req.OrderID),
		paymentID,
		req.CustomerDetails,
		items,
		h.currency,
		h.clock.Now(),
	), nil
}
