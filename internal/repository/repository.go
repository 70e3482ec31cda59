package repository

import (
	"context"
	"errors"
)

// Order представляет связь заказа с email покупателя.
// Создаётся при создании платёжной preference, читается при обработке webhook.
type Order struct {
	Reference  string
	BuyerEmail string
	CreatedAt  int64 // Unix timestamp
}

// OrderLedger определяет интерфейс для хранилища связей reference -> email.
// Service слой зависит от этого интерфейса, а не от конкретной реализации.
type OrderLedger interface {
	// Put сохраняет связь reference -> email, перезаписывая предыдущее значение
	// (last-write-wins).
	Put(ctx context.Context, reference, buyerEmail string) error

	// Get возвращает email покупателя по reference.
	// Возвращает ErrNotFound, если связь не найдена или истёк её TTL.
	Get(ctx context.Context, reference string) (string, error)
}

// ProcessedPayments определяет интерфейс дедупликации платёжных уведомлений.
// Гарантия: между Claim и Complete/Release payment id считается "занятым",
// поэтому параллельные повторные доставки одного уведомления не могут
// выполнить side-effect дважды.
type ProcessedPayments interface {
	// Claim атомарно занимает payment id для обработки.
	// Возвращает false, если id уже обработан или обрабатывается прямо сейчас.
	Claim(ctx context.Context, paymentID string) (bool, error)

	// Complete помечает payment id как обработанный (терминальное состояние)
	// и снимает claim.
	Complete(ctx context.Context, paymentID string) error

	// Release снимает claim без пометки об обработке — повторная доставка
	// сможет обработать id заново (retry после неудачной отправки).
	Release(ctx context.Context, paymentID string) error

	// IsProcessed возвращает true, если payment id уже был успешно обработан.
	IsProcessed(ctx context.Context, paymentID string) (bool, error)
}

// ErrNotFound возвращается, когда запись не найдена в хранилище
var ErrNotFound = errors.New("not found")
