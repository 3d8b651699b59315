package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログ（外部コラボレーター）。カートエンジンは参照のみ。
type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)
}
