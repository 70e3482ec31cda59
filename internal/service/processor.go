package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/repository"
)

// ErrInvalidSignature возвращается, когда подпись присутствует, но не прошла проверку.
// HTTP слой транслирует её в 401, чтобы провайдер не ретраил запрос.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Outcome описывает терминальный исход обработки уведомления
type Outcome string

const (
	// OutcomeFulfilled продукт отправлен, payment id помечен обработанным
	OutcomeFulfilled Outcome = "fulfilled"
	// OutcomeDuplicate payment id уже обработан или обрабатывается, side-effect не выполнен
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored уведомление не actionable (нет id, не payment topic)
	OutcomeIgnored Outcome = "ignored"
	// OutcomeTestPing запрос без подписи - низкодоверенный путь, никогда не
	// выполняет side-effect реального заказа
	OutcomeTestPing Outcome = "test_ping"
	// OutcomeNotApproved статус платежа не approved, обработка возможна при следующей доставке
	OutcomeNotApproved Outcome = "not_approved"
	// OutcomeNoRecipient платёж approved, но email покупателя не удалось определить
	OutcomeNoRecipient Outcome = "no_recipient"
)

// Product описывает отправляемый цифровой продукт
type Product struct {
	Data     []byte
	Filename string
	Subject  string
}

// WebhookProcessor содержит бизнес-логику обработки платёжных уведомлений:
// классификация, проверка подписи, дедупликация, резолв email, отправка продукта.
type WebhookProcessor struct {
	logger    *zap.Logger
	verifier  SignatureVerifier
	resolver  PaymentResolver
	ledger    repository.OrderLedger
	processed repository.ProcessedPayments
	sender    ProductSender
	renderer  BodyRenderer
	product   Product

	// allowUnsignedPings принимать ли запросы без заголовка x-signature как
	// test ping провайдера. Отсутствие заголовка контролируется отправителем,
	// поэтому путь отключаем в конфиге для production.
	allowUnsignedPings bool
}

// NewWebhookProcessor создаёт новый processor.
// Все зависимости - интерфейсы, это позволяет подменять их в тестах.
func NewWebhookProcessor(
	logger *zap.Logger,
	verifier SignatureVerifier,
	resolver PaymentResolver,
	ledger repository.OrderLedger,
	processed repository.ProcessedPayments,
	sender ProductSender,
	renderer BodyRenderer,
	product Product,
	allowUnsignedPings bool,
) *WebhookProcessor {
	return &WebhookProcessor{
		logger:             logger,
		verifier:           verifier,
		resolver:           resolver,
		ledger:             ledger,
		processed:          processed,
		sender:             sender,
		renderer:           renderer,
		product:            product,
		allowUnsignedPings: allowUnsignedPings,
	}
}

// Handle обрабатывает одно уведомление.
// Возвращаемая ошибка означает: ErrInvalidSignature - отказ в аутентификации (401),
// любая другая - transient сбой (500), провайдер передоставит уведомление.
// nil с любым Outcome - запрос принят (200), повторная доставка не нужна.
func (p *WebhookProcessor) Handle(ctx context.Context, n Notification) (Outcome, error) {
	// Не-actionable доставки подтверждаем без side-effect,
	// иначе провайдер будет ретраить их бесконечно
	if n.PaymentID == "" {
		p.logger.Info("webhook without payment id, ignoring",
			zap.String("topic", string(n.Topic)),
		)
		return OutcomeIgnored, nil
	}

	if n.Topic != TopicPayment {
		p.logger.Info("webhook topic is not payment, ignoring",
			zap.String("topic", string(n.Topic)),
			zap.String("payment_id", n.PaymentID),
		)
		return OutcomeIgnored, nil
	}

	// Проверка подписи до любой state-changing работы
	if !n.HasSignature {
		if !p.allowUnsignedPings {
			return "", fmt.Errorf("unsigned webhook rejected: %w", ErrInvalidSignature)
		}
		// Test ping провайдера: принимаем, но не выполняем никакой работы
		p.logger.Info("unsigned webhook accepted as test ping",
			zap.String("payment_id", n.PaymentID),
		)
		return OutcomeTestPing, nil
	}
	if !p.verifier.Verify(n.RawBody, n.Signature, n.RequestID) {
		p.logger.Warn("webhook signature verification failed",
			zap.String("payment_id", n.PaymentID),
		)
		return "", ErrInvalidSignature
	}

	// Ранний дедуп: уже обработанный платёж подтверждаем без похода к провайдеру
	processed, err := p.processed.IsProcessed(ctx, n.PaymentID)
	if err != nil {
		return "", fmt.Errorf("check processed payment %s: %w", n.PaymentID, err)
	}
	if processed {
		p.logger.Info("payment already processed, skipping",
			zap.String("payment_id", n.PaymentID),
		)
		return OutcomeDuplicate, nil
	}

	// Авторитетный статус берём у провайдера, а не из тела уведомления
	payment, err := p.resolver.GetPayment(ctx, n.PaymentID)
	if err != nil {
		return "", fmt.Errorf("resolve payment %s: %w", n.PaymentID, err)
	}

	if !isApproved(payment) {
		p.logger.Info("payment not approved, acknowledging without fulfillment",
			zap.String("payment_id", payment.ID),
			zap.String("status", payment.Status),
			zap.String("status_detail", payment.StatusDetail),
		)
		return OutcomeNotApproved, nil
	}

	// Атомарный claim: из конкурентных доставок одного id дальше пройдёт одна
	claimed, err := p.processed.Claim(ctx, n.PaymentID)
	if err != nil {
		return "", fmt.Errorf("claim payment %s: %w", n.PaymentID, err)
	}
	if !claimed {
		p.logger.Info("payment claimed by concurrent delivery, skipping",
			zap.String("payment_id", n.PaymentID),
		)
		return OutcomeDuplicate, nil
	}

	email, err := p.resolveBuyerEmail(ctx, payment)
	if err != nil {
		p.release(ctx, n.PaymentID)
		return "", err
	}
	if email == "" {
		// Retry не даст другой email, поэтому подтверждаем доставку.
		// Claim снимаем: если ledger позже узнает email, redelivery сработает.
		p.release(ctx, n.PaymentID)
		p.logger.Error("approved payment without resolvable buyer email",
			zap.String("payment_id", payment.ID),
			zap.String("external_reference", payment.ExternalReference),
		)
		return OutcomeNoRecipient, nil
	}

	htmlBody, err := p.renderer.RenderPurchaseCompleted(struct {
		Reference string
	}{Reference: payment.ExternalReference})
	if err != nil {
		p.release(ctx, n.PaymentID)
		return "", fmt.Errorf("render product email body: %w", err)
	}

	if err := p.sender.Send(ctx, email, p.product.Subject, htmlBody, p.product.Filename, p.product.Data); err != nil {
		// Claim снимаем до возврата ошибки: передоставка провайдера повторит отправку
		p.release(ctx, n.PaymentID)
		return "", fmt.Errorf("send product to %s: %w", email, err)
	}

	// Помечаем обработанным только после успешной отправки
	if err := p.processed.Complete(ctx, n.PaymentID); err != nil {
		return "", fmt.Errorf("mark payment %s processed: %w", n.PaymentID, err)
	}

	p.logger.Info("product sent to buyer",
		zap.String("payment_id", payment.ID),
		zap.String("external_reference", payment.ExternalReference),
		zap.String("buyer_email", email),
	)
	return OutcomeFulfilled, nil
}

// resolveBuyerEmail определяет email покупателя: сначала ledger по
// external_reference, затем email плательщика из платёжной записи.
func (p *WebhookProcessor) resolveBuyerEmail(ctx context.Context, payment PaymentRecord) (string, error) {
	if payment.ExternalReference != "" {
		email, err := p.ledger.Get(ctx, payment.ExternalReference)
		if err == nil && email != "" {
			return email, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("ledger lookup %s: %w", payment.ExternalReference, err)
		}
	}
	return payment.PayerEmail, nil
}

// release снимает claim best effort; неудача только логируется,
// основная ошибка обработки важнее
func (p *WebhookProcessor) release(ctx context.Context, paymentID string) {
	if err := p.processed.Release(ctx, paymentID); err != nil {
		p.logger.Error("failed to release payment claim",
			zap.Error(err),
			zap.String("payment_id", paymentID),
		)
	}
}

// isApproved проверяет, что платёж подтверждён: статус approved, а если
// провайдер передал status_detail - средства зачислены
func isApproved(payment PaymentRecord) bool {
	if payment.Status != PaymentStatusApproved {
		return false
	}
	if payment.StatusDetail != "" && payment.StatusDetail != PaymentDetailAccredited {
		return false
	}
	return true
}
