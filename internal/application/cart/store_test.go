package cart

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/brewline/brewline/internal/domain/cart"
)

func price(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestStoreAddOne_AccumulatesQuantityAndTotal(t *testing.T) {
	s := NewStore(nil)

	entry, total := s.AddOne(1, "esp", "Espresso", price(90))
	assert.Equal(t, 1, entry.Quantity)
	assert.True(t, total.Equal(price(90)), "total = %s", total)

	entry, total = s.AddOne(1, "esp", "Espresso", price(90))
	assert.Equal(t, 2, entry.Quantity)
	assert.True(t, total.Equal(price(180)), "total = %s", total)
}

func TestStoreAddOne_SnapshotsPriceAtAddTime(t *testing.T) {
	s := NewStore(nil)

	s.AddOne(1, "esp", "Espresso", price(90))
	// A later add with a changed catalog price must not touch the stored line.
	entry, _ := s.AddOne(1, "esp", "Espresso Deluxe", price(120))

	assert.Equal(t, "Espresso", entry.Name)
	assert.True(t, entry.UnitPrice.Equal(price(90)))
	assert.Equal(t, 2, entry.Quantity)
}

func TestStoreIncrementDecrement_UnknownItem(t *testing.T) {
	s := NewStore(nil)

	_, _, err := s.Increment(1, "missing")
	require.ErrorIs(t, err, domain.ErrNotInCart)

	_, _, err = s.Decrement(1, "missing")
	require.ErrorIs(t, err, domain.ErrNotInCart)
}

func TestStoreDecrement_FloorsAtZeroAndKeepsEntry(t *testing.T) {
	s := NewStore(nil)
	s.AddOne(1, "esp", "Espresso", price(90))

	entry, _, err := s.Decrement(1, "esp")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Quantity)

	// Repeated decrements on a zero-quantity entry are no-ops.
	entry, _, err = s.Decrement(1, "esp")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Quantity)

	lines := s.Snapshot(1)
	require.Len(t, lines, 1, "zero-quantity line must stay in the cart")
	assert.Equal(t, 0, lines[0].Quantity)
	assert.Equal(t, 0, s.Units(1))
	assert.True(t, s.Total(1).Equal(decimal.Zero))
}

func TestStoreTotal_MatchesSnapshotRecomputation(t *testing.T) {
	s := NewStore(nil)
	s.AddOne(7, "esp", "Espresso", price(90))
	s.AddOne(7, "esp", "Espresso", price(90))
	s.AddOne(7, "lat", "Latte", price(120.50))
	_, _, err := s.Decrement(7, "esp")
	require.NoError(t, err)
	_, _, err = s.Increment(7, "lat")
	require.NoError(t, err)

	recomputed := decimal.Zero
	for _, l := range s.Snapshot(7) {
		recomputed = recomputed.Add(l.LineTotal())
	}
	assert.True(t, s.Total(7).Equal(recomputed), "total %s != recomputed %s", s.Total(7), recomputed)
}

func TestStoreClear_RemovesAllEntries(t *testing.T) {
	s := NewStore(nil)
	s.AddOne(1, "esp", "Espresso", price(90))
	s.AddOne(1, "lat", "Latte", price(120))

	s.Clear(1)

	assert.Empty(t, s.Snapshot(1))
	assert.Equal(t, 0, s.Units(1))
}

func TestStoreSnapshot_IsImmutableCopy(t *testing.T) {
	s := NewStore(nil)
	s.AddOne(1, "esp", "Espresso", price(90))

	before := s.Snapshot(1)
	_, _, err := s.Increment(1, "esp")
	require.NoError(t, err)

	assert.Equal(t, 1, before[0].Quantity, "snapshot must not see later mutations")
}

func TestStore_UsersAreIsolated(t *testing.T) {
	s := NewStore(nil)
	s.AddOne(1, "esp", "Espresso", price(90))
	s.AddOne(2, "lat", "Latte", price(120))

	require.Len(t, s.Snapshot(1), 1)
	require.Len(t, s.Snapshot(2), 1)
	assert.Equal(t, "Espresso", s.Snapshot(1)[0].Name)
	assert.Equal(t, "Latte", s.Snapshot(2)[0].Name)
}

func TestStore_ConcurrentMutationsSameUser(t *testing.T) {
	s := NewStore(nil)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.AddOne(42, "esp", "Espresso", price(90))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, s.Units(42))
	expected := price(90).Mul(decimal.NewFromInt(workers * perWorker))
	assert.True(t, s.Total(42).Equal(expected))
}
