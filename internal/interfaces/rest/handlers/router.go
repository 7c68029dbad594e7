package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/api"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest/middleware"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter mounts every storefront route behind the shared middleware
// chain. Requests under /api, except the notification and webhook
// endpoints, are checked against doc before they reach a handler.
func NewRouter(h *Handlers, doc *openapi3.T, logger *slog.Logger, timeout time.Duration) (http.Handler, error) {
	validate, err := middleware.ValidateRequests(doc, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})

	r.Route("/api", func(r chi.Router) {
		// Fire-and-forget endpoints acknowledge every body themselves.
		r.Post("/notifications/order", h.NotifyOrder)
		r.Post("/webhooks/telegram", h.TelegramWebhook)

		r.Group(func(r chi.Router) {
			r.Use(validate)

			r.Post("/orders", h.CreateOrder)
			r.Post("/payments/verify", h.VerifyPayment)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.StartSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetSession)
					r.Post("/items", h.AddItem)
					r.Delete("/items/{name}", h.RemoveItem)
					r.Post("/checkout", h.Submit)
					r.Post("/payment", h.CompletePayment)
					r.Post("/retry", h.Retry)
				})
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront"), nil
}
