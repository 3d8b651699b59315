package repository

import (
	"context"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// インメモリ実装。STORE_DRIVER=memory（DB無しの起動）とハンドラテストで使う。
// 書き込みの直列化はusecase側のカートIDロックが担うので、ここはスナップショットの整合だけ守る。
type CartMemoryRepository struct {
	mu         sync.RWMutex
	carts      map[int64]model.Cart
	order      []int64 // 作成順
	nextCartID int64
	nextItemID int64
}

func NewCartMemoryRepository() *CartMemoryRepository {
	return &CartMemoryRepository{
		carts:      make(map[int64]model.Cart),
		nextCartID: 1,
		nextItemID: 1,
	}
}

func (r *CartMemoryRepository) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cart.ID = r.nextCartID
	r.nextCartID++
	cart.CreatedAt = now
	cart.UpdatedAt = now

	for i := range cart.Items {
		cart.Items[i].ID = r.nextItemID
		r.nextItemID++
		cart.Items[i].CartID = cart.ID
		cart.Items[i].CreatedAt = now
		cart.Items[i].UpdatedAt = now
	}

	r.carts[cart.ID] = cloneCart(cart)
	r.order = append(r.order, cart.ID)
	return cart, nil
}

func (r *CartMemoryRepository) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return cloneCart(cart), nil
}

func (r *CartMemoryRepository) List(ctx context.Context, limit int, skip int) ([]model.Cart, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live := make([]model.Cart, 0, len(r.order))
	for _, id := range r.order {
		if c, ok := r.carts[id]; ok && !c.IsDeleted {
			live = append(live, c)
		}
	}

	total := int64(len(live))
	if skip >= len(live) {
		return []model.Cart{}, total, nil
	}

	end := skip + limit
	if end > len(live) {
		end = len(live)
	}

	out := make([]model.Cart, 0, end-skip)
	for _, c := range live[skip:end] {
		out = append(out, cloneCart(c))
	}
	return out, total, nil
}

func (r *CartMemoryRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Cart, 0)
	for _, id := range r.order {
		if c, ok := r.carts[id]; ok && !c.IsDeleted && c.UserID == userID {
			out = append(out, cloneCart(c))
		}
	}
	return out, nil
}

func (r *CartMemoryRepository) ReplaceItems(ctx context.Context, cart model.Cart) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.carts[cart.ID]
	if !ok || current.IsDeleted {
		return model.Cart{}, repo.ErrNotFound
	}

	now := time.Now()
	for i := range cart.Items {
		cart.Items[i].ID = r.nextItemID
		r.nextItemID++
		cart.Items[i].CartID = cart.ID
		cart.Items[i].UpdatedAt = now
		if cart.Items[i].CreatedAt.IsZero() {
			cart.Items[i].CreatedAt = now
		}
	}

	current.Items = cart.Items
	current.Total = cart.Total
	current.DiscountedTotal = cart.DiscountedTotal
	current.TotalProducts = cart.TotalProducts
	current.TotalQuantity = cart.TotalQuantity
	current.UpdatedAt = now

	r.carts[cart.ID] = cloneCart(current)
	return current, nil
}

func (r *CartMemoryRepository) MarkDeleted(ctx context.Context, cartID int64, deletedAt time.Time) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.carts[cartID]
	if !ok || current.IsDeleted {
		return model.Cart{}, repo.ErrNotFound
	}

	current.IsDeleted = true
	current.DeletedAt = &deletedAt
	current.UpdatedAt = deletedAt

	r.carts[cartID] = cloneCart(current)
	return cloneCart(current), nil
}

// mapに持たせた実体と返り値を切り離す
func cloneCart(c model.Cart) model.Cart {
	out := c
	out.Items = make([]model.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		out.DeletedAt = &t
	}
	return out
}
