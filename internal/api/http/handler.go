package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/service"
	platformobservability "github.com/shestoi/ebookshop/platform/observability"
)

// Handler содержит HTTP-обработчики checkout и feedback.
// Зависит от service слоя, но не знает о провайдере и хранилищах.
type Handler struct {
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

// NewHandler создаёт новый HTTP handler
func NewHandler(checkoutService *service.CheckoutService, logger *zap.Logger) *Handler {
	return &Handler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// CheckoutRequest представляет HTTP запрос на создание checkout
type CheckoutRequest struct {
	BuyerEmail        *string `json:"buyer_email"`
	ExternalReference *string `json:"external_reference"`
}

// CheckoutResponse представляет HTTP ответ с созданной preference
type CheckoutResponse struct {
	ID                 string `json:"id"`
	RedirectURL        string `json:"redirect_url"`
	SandboxRedirectURL string `json:"sandbox_redirect_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PostCheckout обрабатывает POST /checkout - создание платёжной preference
func (h *Handler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.requestLogger(ctx)

	var reqBody CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		log.Warn("checkout: invalid JSON", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if reqBody.BuyerEmail == nil || *reqBody.BuyerEmail == "" {
		writeError(w, http.StatusBadRequest, "buyer_email is required")
		return
	}
	if reqBody.ExternalReference == nil || *reqBody.ExternalReference == "" {
		writeError(w, http.StatusBadRequest, "external_reference is required")
		return
	}

	result, err := h.checkoutService.CreateCheckout(ctx, service.CreateCheckoutInput{
		BuyerEmail:        *reqBody.BuyerEmail,
		ExternalReference: *reqBody.ExternalReference,
	})
	if err != nil {
		if errors.Is(err, service.ErrBuyerEmailRequired) || errors.Is(err, service.ErrExternalReferenceRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("checkout: preference creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create checkout preference")
		return
	}

	writeJSON(w, http.StatusOK, CheckoutResponse{
		ID:                 result.PreferenceID,
		RedirectURL:        result.RedirectURL,
		SandboxRedirectURL: result.SandboxRedirectURL,
	})
}

// GetFeedback обрабатывает GET /feedback/{status} - чисто презентационный
// echo статуса платежа и query параметров после redirect от провайдера
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")

	details := make(map[string]string, len(r.URL.Query()))
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			details[key] = values[0]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"details": details,
	})
}

// requestLogger возвращает trace-aware logger из контекста, если он там есть
func (h *Handler) requestLogger(ctx context.Context) *zap.Logger {
	if l := platformobservability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return h.logger
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
