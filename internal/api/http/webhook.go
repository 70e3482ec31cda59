package httpapi

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/service"
)

// maxWebhookBodySize ограничивает размер тела уведомления
const maxWebhookBodySize = 1 << 20 // 1 MiB

// WebhookHandler обрабатывает POST /webhook - входящие уведомления провайдера.
// Статусы ответа: 200 - принято (включая no-op исходы, чтобы провайдер не
// ретраил), 401 - подпись не прошла, 500 - transient сбой (провайдер передоставит).
type WebhookHandler struct {
	processor *service.WebhookProcessor
	logger    *zap.Logger
}

// NewWebhookHandler создаёт новый webhook handler
func NewWebhookHandler(processor *service.WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// PostWebhook обрабатывает одно уведомление
func (h *WebhookHandler) PostWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Warn("webhook: failed to read body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	notification := service.ParseNotification(r.URL.Query(), r.Header, body)

	outcome, err := h.processor.Handle(ctx, notification)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
		h.logger.Error("webhook: processing failed",
			zap.Error(err),
			zap.String("payment_id", notification.PaymentID),
		)
		writeError(w, http.StatusInternalServerError, "failed to process notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"outcome": string(outcome),
	})
}
