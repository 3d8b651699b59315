package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type CartRepository interface {
	// Items込みで作成し、採番済みのカートを返す
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)

	// 削除済みも含めて取得（読み取りはソフトデリート後も可）
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)

	// 未削除のみ、作成順。totalは未削除カートの総数
	List(ctx context.Context, limit int, skip int) ([]model.Cart, int64, error)

	// 指定ユーザーの未削除カートを作成順で返す
	ListByUserID(ctx context.Context, userID int64) ([]model.Cart, error)

	// 明細を差し替えて集計値を保存。削除済みならErrNotFound
	ReplaceItems(ctx context.Context, cart model.Cart) (model.Cart, error)

	// is_deletedを立てる。削除済み・不存在はErrNotFound
	MarkDeleted(ctx context.Context, cartID int64, deletedAt time.Time) (model.Cart, error)
}
