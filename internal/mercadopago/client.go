package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/service"
)

// Config содержит настройки клиента Mercado Pago API
type Config struct {
	// AccessToken токен доступа к API
	AccessToken string
	// BaseURL адрес API, по умолчанию https://api.mercadopago.com
	BaseURL string
	// NotificationURL публичный адрес нашего webhook endpoint
	NotificationURL string
	// BackURLBase база для redirect адресов (/feedback/{status})
	BackURLBase string
	// ProductTitle название товара в preference
	ProductTitle string
	// UnitPrice цена товара
	UnitPrice float64
}

// Client реализует PaymentResolver и PreferenceCreator через Mercado Pago REST API
type Client struct {
	logger *zap.Logger
	cfg    Config
	client *http.Client
}

// NewClient создаёт новый API клиент
func NewClient(logger *zap.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mercadopago.com"
	}
	return &Client{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// paymentResponse описывает интересующие нас поля ответа GET /v1/payments/{id}
type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

// GetPayment получает авторитетные данные платежа по id
func (c *Client) GetPayment(ctx context.Context, paymentID string) (service.PaymentRecord, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.cfg.BaseURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return service.PaymentRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return service.PaymentRecord{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return service.PaymentRecord{}, fmt.Errorf("mercadopago API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payment paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return service.PaymentRecord{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("payment fetched",
		zap.String("payment_id", payment.ID.String()),
		zap.String("status", payment.Status),
	)

	return service.PaymentRecord{
		ID:                payment.ID.String(),
		Status:            payment.Status,
		StatusDetail:      payment.StatusDetail,
		ExternalReference: payment.ExternalReference,
		PayerEmail:        payment.Payer.Email,
	}, nil
}

// preferenceRequest описывает тело POST /checkout/preferences
type preferenceRequest struct {
	Items []preferenceItem `json:"items"`
	Payer struct {
		Email string `json:"email"`
	} `json:"payer"`
	BackURLs          backURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return"`
	NotificationURL   string   `json:"notification_url"`
	ExternalReference string   `json:"external_reference"`
}

type preferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// preferenceResponse описывает интересующие нас поля ответа
type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// CreatePreference создаёт checkout preference у провайдера.
// X-Idempotency-Key защищает от дублей preference при сетевых ретраях.
func (c *Client) CreatePreference(ctx context.Context, input service.CreatePreferenceInput) (service.Preference, error) {
	url := c.cfg.BaseURL + "/checkout/preferences"

	reqBody := preferenceRequest{
		Items: []preferenceItem{
			{
				Title:     c.cfg.ProductTitle,
				Quantity:  1,
				UnitPrice: c.cfg.UnitPrice,
			},
		},
		BackURLs: backURLs{
			Success: c.cfg.BackURLBase + "/feedback/success",
			Failure: c.cfg.BackURLBase + "/feedback/failure",
			Pending: c.cfg.BackURLBase + "/feedback/pending",
		},
		AutoReturn:        "approved",
		NotificationURL:   c.cfg.NotificationURL,
		ExternalReference: input.ExternalReference,
	}
	reqBody.Payer.Email = input.BuyerEmail

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return service.Preference{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return service.Preference{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return service.Preference{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return service.Preference{}, fmt.Errorf("mercadopago API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var preference preferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&preference); err != nil {
		return service.Preference{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("preference created",
		zap.String("preference_id", preference.ID),
		zap.String("external_reference", input.ExternalReference),
	)

	return service.Preference{
		ID:               preference.ID,
		InitPoint:        preference.InitPoint,
		SandboxInitPoint: preference.SandboxInitPoint,
	}, nil
}
