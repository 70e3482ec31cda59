package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shestoi/ebookshop/internal/repository"
)

// MemoryLedger реализует OrderLedger используя in-memory map с TTL.
// Используется для dev/test окружений. В production должен быть заменён
// на durable хранилище, интерфейс это позволяет.
type MemoryLedger struct {
	mu      sync.RWMutex
	orders  map[string]ledgerEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

type ledgerEntry struct {
	buyerEmail string
	createdAt  time.Time
	expiresAt  time.Time
}

// NewMemoryLedger создаёт новый in-memory ledger.
// ttl ограничивает время жизни записи: reference никогда не удаляется явно,
// без TTL хранилище росло бы неограниченно.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{
		orders:  make(map[string]ledgerEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Put сохраняет связь reference -> email, перезаписывая предыдущее значение.
// Защищён мьютексом для безопасного доступа из разных горутин.
func (l *MemoryLedger) Put(ctx context.Context, reference, buyerEmail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Ленивая очистка протухших записей
	l.cleanupExpiredLocked()

	now := l.nowFunc()
	l.orders[reference] = ledgerEntry{
		buyerEmail: buyerEmail,
		createdAt:  now,
		expiresAt:  now.Add(l.ttl),
	}
	return nil
}

// Get возвращает email покупателя по reference.
// Возвращает ErrNotFound, если записи нет или истёк TTL.
func (l *MemoryLedger) Get(ctx context.Context, reference string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, exists := l.orders[reference]
	if !exists {
		return "", repository.ErrNotFound
	}
	if l.nowFunc().After(entry.expiresAt) {
		return "", repository.ErrNotFound
	}
	return entry.buyerEmail, nil
}

// cleanupExpiredLocked удаляет протухшие записи (вызывается с уже захваченным lock)
func (l *MemoryLedger) cleanupExpiredLocked() {
	now := l.nowFunc()
	for reference, entry := range l.orders {
		if now.After(entry.expiresAt) {
			delete(l.orders, reference)
		}
	}
}

type paymentState int

const (
	stateInFlight paymentState = iota
	stateProcessed
)

type paymentEntry struct {
	state     paymentState
	expiresAt time.Time
}

// MemoryProcessedPayments реализует ProcessedPayments используя in-memory map.
// Claim/Complete/Release выполняются под одним мьютексом, поэтому
// check-and-mark атомарен: два конкурентных Claim одного id не пройдут оба.
type MemoryProcessedPayments struct {
	mu       sync.Mutex
	payments map[string]paymentEntry
	ttl      time.Duration
	nowFunc  func() time.Time
}

// NewMemoryProcessedPayments создаёт новый in-memory store.
// ttl задаёт время жизни записи об обработанном платеже: после истечения
// повторная доставка будет обработана заново.
func NewMemoryProcessedPayments(ttl time.Duration) *MemoryProcessedPayments {
	return &MemoryProcessedPayments{
		payments: make(map[string]paymentEntry),
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

// Claim атомарно занимает payment id для обработки.
// Возвращает false, если id уже обработан (и TTL не истёк) или в обработке.
func (s *MemoryProcessedPayments) Claim(ctx context.Context, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()

	entry, exists := s.payments[paymentID]
	if exists {
		if entry.state == stateInFlight {
			return false, nil
		}
		if s.nowFunc().Before(entry.expiresAt) {
			return false, nil
		}
		// Запись протухла, можно занимать заново
	}

	s.payments[paymentID] = paymentEntry{state: stateInFlight}
	return true, nil
}

// Complete помечает payment id как обработанный с TTL
func (s *MemoryProcessedPayments) Complete(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[paymentID] = paymentEntry{
		state:     stateProcessed,
		expiresAt: s.nowFunc().Add(s.ttl),
	}
	return nil
}

// Release снимает claim, не помечая id обработанным
func (s *MemoryProcessedPayments) Release(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.payments[paymentID]
	if exists && entry.state == stateInFlight {
		delete(s.payments, paymentID)
	}
	return nil
}

// IsProcessed проверяет, был ли payment id уже успешно обработан
func (s *MemoryProcessedPayments) IsProcessed(ctx context.Context, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.payments[paymentID]
	if !exists || entry.state != stateProcessed {
		return false, nil
	}
	if s.nowFunc().After(entry.expiresAt) {
		delete(s.payments, paymentID)
		return false, nil
	}
	return true, nil
}

// cleanupExpiredLocked удаляет протухшие записи (вызывается с уже захваченным lock)
func (s *MemoryProcessedPayments) cleanupExpiredLocked() {
	now := s.nowFunc()
	for paymentID, entry := range s.payments {
		if entry.state == stateProcessed && now.After(entry.expiresAt) {
			delete(s.payments, paymentID)
		}
	}
}
