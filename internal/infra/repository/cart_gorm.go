package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// カートを明細込みで作成
func (r *CartGormRepository) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&cart).Error
	})
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 削除済みも含めて1件取得
func (r *CartGormRepository) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("id = ?", cartID).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 未削除カートを作成順で一覧（total は未削除の総数）
func (r *CartGormRepository) List(ctx context.Context, limit int, skip int) ([]model.Cart, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("is_deleted = ?", false).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var carts []model.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("is_deleted = ?", false).
		Order("id asc").
		Offset(skip).
		Limit(limit).
		Find(&carts).Error; err != nil {
		return nil, 0, err
	}

	return carts, total, nil
}

// 指定ユーザーの未削除カートを作成順で一覧
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Cart, error) {
	var carts []model.Cart

	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("id asc").
		Find(&carts).Error; err != nil {
		return nil, err
	}

	return carts, nil
}

// 明細を差し替えて集計値を保存。削除済み・不存在はErrNotFound
func (r *CartGormRepository) ReplaceItems(ctx context.Context, cart model.Cart) (model.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Cart

		// 行ロックで read-modify-write を直列化
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", cart.ID, false).
			First(&current).Error

		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		if findErr != nil {
			return findErr
		}

		// 旧明細を消して入れ替える
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&model.Cart{}).
			Where("id = ?", cart.ID).
			Updates(map[string]interface{}{
				"total":            cart.Total,
				"discounted_total": cart.DiscountedTotal,
				"total_products":   cart.TotalProducts,
				"total_quantity":   cart.TotalQuantity,
				"updated_at":       time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return r.FindByID(ctx, cart.ID)
}

// is_deletedを立てる。既に削除済みならErrNotFound
func (r *CartGormRepository) MarkDeleted(ctx context.Context, cartID int64, deletedAt time.Time) (model.Cart, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ? AND is_deleted = ?", cartID, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": deletedAt,
		})

	if res.Error != nil {
		return model.Cart{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Cart{}, repo.ErrNotFound
	}

	return r.FindByID(ctx, cartID)
}
