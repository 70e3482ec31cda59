package service

import (
	"context"
)

// Topic классифицирует входящее уведомление провайдера
type Topic string

const (
	// TopicPayment уведомление об изменении статуса платежа
	TopicPayment Topic = "payment"
	// TopicMerchantOrder уведомление об ордере мерчанта (fulfillment не выполняется)
	TopicMerchantOrder Topic = "merchant_order"
	// TopicUnknown всё остальное
	TopicUnknown Topic = "unknown"
)

// Статусы платежа у провайдера
const (
	PaymentStatusApproved = "approved"
	PaymentStatusPending  = "pending"
	PaymentStatusRejected = "rejected"

	// PaymentDetailAccredited подтверждает, что средства зачислены
	PaymentDetailAccredited = "accredited"
)

// PaymentRecord представляет авторитетные данные платежа, полученные от провайдера
type PaymentRecord struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	PayerEmail        string
}

// PaymentResolver определяет интерфейс для получения авторитетного статуса платежа
type PaymentResolver interface {
	// GetPayment получает платёж по id у провайдера
	GetPayment(ctx context.Context, paymentID string) (PaymentRecord, error)
}

// CreatePreferenceInput содержит входные данные для создания checkout preference
type CreatePreferenceInput struct {
	BuyerEmail        string
	ExternalReference string
}

// Preference представляет созданную у провайдера checkout preference
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// PreferenceCreator определяет интерфейс для создания checkout preference у провайдера
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, input CreatePreferenceInput) (Preference, error)
}

// ProductSender определяет интерфейс отправки цифрового продукта покупателю.
// Дедупликацию sender не выполняет: processor гарантирует не более одной
// успешной отправки на payment id.
type ProductSender interface {
	Send(ctx context.Context, to, subject, htmlBody, filename string, attachment []byte) error
}

// SignatureVerifier определяет интерфейс проверки подписи webhook запроса
type SignatureVerifier interface {
	Verify(rawBody []byte, signatureHeader, requestID string) bool
}

// BodyRenderer рендерит HTML тело письма с продуктом
type BodyRenderer interface {
	RenderPurchaseCompleted(data any) (string, error)
}
