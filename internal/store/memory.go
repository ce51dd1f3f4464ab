package store

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/google/uuid"
)

var _ ProductStore = (*MemoryStore)(nil)

// MemoryStore implements ProductStore using an in-memory map.
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
	now      func() time.Time
}

// NewMemoryStore creates a new, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[uuid.UUID]Product),
		now:      time.Now,
	}
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Product, error) {
	return s.filter(func(Product) bool { return true }), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalogerrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindByCategory(_ context.Context, category string) ([]Product, error) {
	return s.filter(func(p Product) bool { return p.Category == category }), nil
}

func (s *MemoryStore) FindFeatured(_ context.Context) ([]Product, error) {
	return s.filter(func(p Product) bool { return p.IsFeatured }), nil
}

// SampleRandom picks min(n, |store|) distinct products with a partial Fisher-Yates shuffle.
func (s *MemoryStore) SampleRandom(_ context.Context, n int) ([]Recommendation, error) {
	s.mu.RLock()
	pool := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		pool = append(pool, p)
	}
	s.mu.RUnlock()

	n = max(0, min(n, len(pool)))
	sample := make([]Recommendation, 0, n)
	for i := range n {
		j := i + rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		p := pool[i]
		sample = append(sample, Recommendation{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Image:       p.Image,
			Price:       p.Price,
		})
	}
	return sample, nil
}

func (s *MemoryStore) Insert(_ context.Context, params CreateParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := Product{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Category:    params.Category,
		Image:       params.Image,
		ImageKey:    params.ImageKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *MemoryStore) ToggleIsFeatured(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalogerrors.ErrProductNotFound
	}
	p.IsFeatured = !p.IsFeatured
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return catalogerrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// filter returns the matching products ordered by creation time, then id.
func (s *MemoryStore) filter(match func(Product) bool) []Product {
	s.mu.RLock()
	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if match(p) {
			list = append(list, p)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return list
}
