package store

import (
	"context"
	"sync"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMemoryStore returns a store whose clock advances one second per write,
// so creation order is deterministic.
func newTestMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func seed(t *testing.T, s ProductStore, names ...string) []Product {
	t.Helper()
	products := make([]Product, 0, len(names))
	for _, name := range names {
		p, err := s.Insert(context.Background(), CreateParams{
			Name:        name,
			Description: name + " description",
			Price:       decimal.RequireFromString("9.99"),
			Category:    "toys",
		})
		require.NoError(t, err)
		products = append(products, *p)
	}
	return products
}

func Test_MemoryStore_FindByID(t *testing.T) {
	s := newTestMemoryStore()
	products := seed(t, s, "Ball")

	testCases := []struct {
		name          string
		id            uuid.UUID
		expectedError error
	}{
		{name: "Success - product found", id: products[0].ID},
		{name: "Error - product not found", id: uuid.New(), expectedError: catalogerrors.ErrProductNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			found, err := s.FindByID(context.Background(), tc.id)
			// then
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, products[0], *found)
		})
	}
}

func Test_MemoryStore_FindFeatured_OrderedAndDetached(t *testing.T) {
	// given
	ctx := context.Background()
	s := newTestMemoryStore()
	products := seed(t, s, "A", "B", "C")
	for _, p := range []Product{products[2], products[0]} {
		_, err := s.ToggleIsFeatured(ctx, p.ID)
		require.NoError(t, err)
	}

	// when
	featured, err := s.FindFeatured(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "A", featured[0].Name)
	assert.Equal(t, "C", featured[1].Name)

	featured[0].Name = "mutated"
	again, err := s.FindByID(ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func Test_MemoryStore_FindByCategory(t *testing.T) {
	// given
	ctx := context.Background()
	s := newTestMemoryStore()
	seed(t, s, "Ball")
	_, err := s.Insert(ctx, CreateParams{Name: "Shirt", Description: "d", Price: decimal.Zero, Category: "clothes"})
	require.NoError(t, err)

	// when
	toys, err := s.FindByCategory(ctx, "toys")
	require.NoError(t, err)
	none, err := s.FindByCategory(ctx, "Toys")
	require.NoError(t, err)

	// then
	require.Len(t, toys, 1)
	assert.Equal(t, "Ball", toys[0].Name)
	assert.Empty(t, none)
}

func Test_MemoryStore_SampleRandom(t *testing.T) {
	testCases := []struct {
		name     string
		size     int
		n        int
		expected int
	}{
		{name: "empty store", size: 0, n: 4, expected: 0},
		{name: "fewer than requested", size: 2, n: 4, expected: 2},
		{name: "exactly requested", size: 4, n: 4, expected: 4},
		{name: "more than requested", size: 10, n: 4, expected: 4},
		{name: "non-positive n", size: 3, n: 0, expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			s := newTestMemoryStore()
			names := make([]string, tc.size)
			for i := range names {
				names[i] = uuid.NewString()
			}
			seed(t, s, names...)

			// when
			sample, err := s.SampleRandom(context.Background(), tc.n)

			// then
			require.NoError(t, err)
			assert.Len(t, sample, tc.expected)
			seen := make(map[uuid.UUID]bool)
			for _, r := range sample {
				assert.False(t, seen[r.ID], "sample must not repeat products")
				seen[r.ID] = true
			}
		})
	}
}

func Test_MemoryStore_ToggleIsFeatured_NotFound(t *testing.T) {
	s := newTestMemoryStore()
	_, err := s.ToggleIsFeatured(context.Background(), uuid.New())
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
}

func Test_MemoryStore_ToggleIsFeatured_ConcurrentFlipsAreNotLost(t *testing.T) {
	// given
	ctx := context.Background()
	s := newTestMemoryStore()
	products := seed(t, s, "Ball")
	const flips = 50

	// when
	var wg sync.WaitGroup
	for range flips {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleIsFeatured(ctx, products[0].ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// then
	found, err := s.FindByID(ctx, products[0].ID)
	require.NoError(t, err)
	assert.False(t, found.IsFeatured, "an even number of flips restores the flag")
}

func Test_MemoryStore_DeleteByID(t *testing.T) {
	// given
	ctx := context.Background()
	s := newTestMemoryStore()
	products := seed(t, s, "Ball")

	// when
	err := s.DeleteByID(ctx, products[0].ID)

	// then
	require.NoError(t, err)
	_, err = s.FindByID(ctx, products[0].ID)
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
	assert.ErrorIs(t, s.DeleteByID(ctx, products[0].ID), catalogerrors.ErrProductNotFound)
}
