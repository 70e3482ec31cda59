package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/repository"
)

// Ошибки валидации checkout запроса. HTTP слой транслирует их в 400.
var (
	ErrBuyerEmailRequired        = errors.New("buyer_email is required")
	ErrExternalReferenceRequired = errors.New("external_reference is required")
)

// CheckoutService содержит бизнес-логику создания checkout:
// создание preference у провайдера и запись email покупателя в ledger
type CheckoutService struct {
	logger *zap.Logger
	client PreferenceCreator
	ledger repository.OrderLedger
}

// NewCheckoutService создаёт новый CheckoutService
func NewCheckoutService(logger *zap.Logger, client PreferenceCreator, ledger repository.OrderLedger) *CheckoutService {
	return &CheckoutService{
		logger: logger,
		client: client,
		ledger: ledger,
	}
}

// CreateCheckoutInput содержит входные данные для создания checkout
type CreateCheckoutInput struct {
	BuyerEmail        string
	ExternalReference string
}

// CreateCheckoutOutput содержит результат создания checkout
type CreateCheckoutOutput struct {
	PreferenceID       string
	RedirectURL        string
	SandboxRedirectURL string
}

// CreateCheckout создаёт платёжную preference и сохраняет связь
// external_reference -> email для резолва при обработке webhook
func (s *CheckoutService) CreateCheckout(ctx context.Context, input CreateCheckoutInput) (*CreateCheckoutOutput, error) {
	if input.BuyerEmail == "" {
		return nil, ErrBuyerEmailRequired
	}
	if input.ExternalReference == "" {
		return nil, ErrExternalReferenceRequired
	}

	preference, err := s.client.CreatePreference(ctx, CreatePreferenceInput{
		BuyerEmail:        input.BuyerEmail,
		ExternalReference: input.ExternalReference,
	})
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}

	if err := s.ledger.Put(ctx, input.ExternalReference, input.BuyerEmail); err != nil {
		return nil, fmt.Errorf("store order %s: %w", input.ExternalReference, err)
	}

	s.logger.Info("checkout preference created",
		zap.String("preference_id", preference.ID),
		zap.String("external_reference", input.ExternalReference),
	)

	return &CreateCheckoutOutput{
		PreferenceID:       preference.ID,
		RedirectURL:        preference.InitPoint,
		SandboxRedirectURL: preference.SandboxInitPoint,
	}, nil
}
