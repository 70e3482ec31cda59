package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shestoi/ebookshop/internal/repository"
)

func TestMemoryLedger_PutGet(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(time.Hour)

	// Записи нет - ErrNotFound
	_, err := ledger.Get(ctx, "ORD1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Сохраняем и читаем
	err = ledger.Put(ctx, "ORD1", "a@x.com")
	assert.NoError(t, err)

	email, err := ledger.Get(ctx, "ORD1")
	assert.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestMemoryLedger_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(time.Hour)

	// Повторный Put перезаписывает значение
	assert.NoError(t, ledger.Put(ctx, "ORD1", "first@x.com"))
	assert.NoError(t, ledger.Put(ctx, "ORD1", "second@x.com"))

	email, err := ledger.Get(ctx, "ORD1")
	assert.NoError(t, err)
	assert.Equal(t, "second@x.com", email)
}

func TestMemoryLedger_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(time.Hour)

	now := time.Now()
	ledger.nowFunc = func() time.Time { return now }

	assert.NoError(t, ledger.Put(ctx, "ORD1", "a@x.com"))

	// До истечения TTL запись доступна
	email, err := ledger.Get(ctx, "ORD1")
	assert.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	// Сдвигаем время за пределы TTL
	ledger.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }

	_, err = ledger.Get(ctx, "ORD1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryProcessedPayments_ClaimComplete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProcessedPayments(time.Hour)

	// Первый Claim проходит
	claimed, err := store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, claimed)

	// Пока id в обработке, второй Claim не проходит
	claimed, err = store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.False(t, claimed)

	// После Complete id считается обработанным
	assert.NoError(t, store.Complete(ctx, "P1"))

	processed, err := store.IsProcessed(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, processed)

	// И Claim по-прежнему не проходит
	claimed, err = store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.False(t, claimed)
}

func TestMemoryProcessedPayments_Release(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProcessedPayments(time.Hour)

	claimed, err := store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, claimed)

	// Release снимает claim без пометки об обработке
	assert.NoError(t, store.Release(ctx, "P1"))

	processed, err := store.IsProcessed(ctx, "P1")
	assert.NoError(t, err)
	assert.False(t, processed)

	// Повторный Claim после Release проходит (retry)
	claimed, err = store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, claimed)
}

func TestMemoryProcessedPayments_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProcessedPayments(time.Hour)

	now := time.Now()
	store.nowFunc = func() time.Time { return now }

	claimed, err := store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, store.Complete(ctx, "P1"))

	// Сдвигаем время за пределы TTL - запись протухла
	store.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }

	processed, err := store.IsProcessed(ctx, "P1")
	assert.NoError(t, err)
	assert.False(t, processed)

	claimed, err = store.Claim(ctx, "P1")
	assert.NoError(t, err)
	assert.True(t, claimed)
}

func TestMemoryProcessedPayments_ConcurrentClaim(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProcessedPayments(time.Hour)

	// N конкурентных Claim одного id - пройти должен ровно один
	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	claimedCount := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(ctx, "P1")
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				claimedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimedCount)
}
