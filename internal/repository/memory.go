package repository

import (
	"sort"
	"sync"
	"time"

	"go-catalog-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memoryProductRepo is an in-memory ProductRepository. It mirrors the GORM
// implementation's behavior (UUID assignment, timestamps, newest-first listing,
// gorm.ErrRecordNotFound on misses) so services can be exercised without a
// database.
type memoryProductRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]model.Product
	seq      map[uuid.UUID]int
	next     int
}

func NewMemoryProductRepo() ProductRepository {
	return &memoryProductRepo{
		products: make(map[uuid.UUID]model.Product),
		seq:      make(map[uuid.UUID]int),
	}
}

func (r *memoryProductRepo) Create(product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = uuid.New()
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	r.next++
	r.seq[product.ID] = r.next
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepo) FindAll() ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	// Insertion sequence breaks created_at ties within clock resolution.
	sort.Slice(products, func(i, j int) bool {
		return r.seq[products[i].ID] > r.seq[products[j].ID]
	})
	return products, nil
}

func (r *memoryProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memoryProductRepo) Update(product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.products, id)
	delete(r.seq, id)
	return nil
}
