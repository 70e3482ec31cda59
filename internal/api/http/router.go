package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/ebookshop/platform/health/http"
	platformobservability "github.com/shestoi/ebookshop/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер Fulfillment Service.
// readiness - функция проверки готовности сервиса для health endpoint.
// logger используется observability middleware (trace_id в логах).
func NewRouter(handler *Handler, webhookHandler *WebhookHandler, readiness func() bool, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	// Observability: trace context + span на каждый бизнес-запрос
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("fulfillment", logger))
	}

	router.Post("/checkout", handler.PostCheckout)
	router.Post("/webhook", webhookHandler.PostWebhook)
	router.Get("/feedback/{status}", handler.GetFeedback)

	// Health без middleware
	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
