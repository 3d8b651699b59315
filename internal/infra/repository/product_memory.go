package repository

import (
	"context"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// カタログのインメモリ実装（memoryモードとテスト用の固定データ）
type ProductMemoryRepository struct {
	mu       sync.RWMutex
	products map[int64]model.Product
}

func NewProductMemoryRepository(products []model.Product) *ProductMemoryRepository {
	m := make(map[int64]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &ProductMemoryRepository{products: m}
}

func (r *ProductMemoryRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}
