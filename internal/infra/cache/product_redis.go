package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	// Cache catalog lookup: product:{product_id} -> Product JSON
	keyProduct = "product:%d"
)

var TTLProduct = 5 * time.Minute

// ProductCacheRepository はカタログ参照のread-throughキャッシュ。
// ヒットすればRedisから返し、ミスは委譲してTTL付きで書き戻す。
// not-foundはキャッシュしない（商品追加直後に見えなくなるのを避ける）。
type ProductCacheRepository struct {
	rdb  *redis.Client
	next repo.ProductRepository
}

func NewProductCacheRepository(rdb *redis.Client, next repo.ProductRepository) *ProductCacheRepository {
	return &ProductCacheRepository{rdb: rdb, next: next}
}

func (r *ProductCacheRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	key := fmt.Sprintf(keyProduct, productID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p model.Product
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return p, nil
		}
		// 壊れたエントリは捨てて取り直す
		_ = r.rdb.Del(ctx, key).Err()
	}

	// ミスもRedis障害も素通りして本体を引く
	p, err := r.next.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}

	if raw, jsonErr := json.Marshal(p); jsonErr == nil {
		_ = r.rdb.Set(ctx, key, raw, TTLProduct).Err()
	}
	return p, nil
}
