package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Notification представляет разобранное входящее уведомление провайдера.
// Конструируется парсером на каждый запрос и отбрасывается после обработки.
type Notification struct {
	Topic     Topic
	PaymentID string
	RawBody   []byte

	// Подпись запроса (x-signature / x-request-id). HasSignature == false
	// означает "test ping" провайдера без аутентификационного материала.
	Signature    string
	RequestID    string
	HasSignature bool
}

// notificationBody описывает известные формы JSON тела уведомления:
// новая ({"type":"payment","data":{"id":...}}) и старая ({"topic":...,"id":...}).
type notificationBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	ID    any    `json:"id"`
	Data  struct {
		ID any `json:"id"`
	} `json:"data"`
}

// ParseNotification разбирает query параметры, заголовки и тело запроса
// в таггированный Notification со строгим порядком приоритета:
// topic: query topic -> query type -> body type -> body topic;
// payment id: query id -> query data.id -> body data.id -> body id.
func ParseNotification(query url.Values, header http.Header, rawBody []byte) Notification {
	var body notificationBody
	if len(rawBody) > 0 {
		// UseNumber, чтобы числовые id не превращались в float64 с экспонентой
		dec := json.NewDecoder(bytes.NewReader(rawBody))
		dec.UseNumber()
		_ = dec.Decode(&body) // невалидный JSON - просто нет данных из тела
	}

	topic := firstNonEmpty(
		query.Get("topic"),
		query.Get("type"),
		body.Type,
		body.Topic,
	)

	paymentID := firstNonEmpty(
		query.Get("id"),
		query.Get("data.id"),
		stringifyID(body.Data.ID),
		stringifyID(body.ID),
	)

	sig := strings.TrimSpace(header.Get("x-signature"))

	return Notification{
		Topic:        normalizeTopic(topic),
		PaymentID:    paymentID,
		RawBody:      rawBody,
		Signature:    sig,
		RequestID:    strings.TrimSpace(header.Get("x-request-id")),
		HasSignature: sig != "",
	}
}

// normalizeTopic приводит сырое значение topic/type к известной категории
func normalizeTopic(raw string) Topic {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "payment":
		return TopicPayment
	case "merchant_order":
		return TopicMerchantOrder
	default:
		return TopicUnknown
	}
}

// stringifyID приводит id из JSON (строка или json.Number) к строке
func stringifyID(value any) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
