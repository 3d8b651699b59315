package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
	"app/internal/validator"
)

// 集計値の許容誤差（float）
const totalsTolerance = 0.01

// カートIDロックの取得待ち上限。超えたら503で返してリトライしてもらう。
const lockAcquireTimeout = 5 * time.Second

// 一覧のデフォルト/上限
const (
	defaultListLimit = 30
	maxListLimit     = 100
)

// CartUsecase は /carts の業務ロジックです。
// 変更系はカートIDごとに直列化し、保存前に集計値の整合を必ず検査します。
type CartUsecase struct {
	cartRepo  repo.CartRepository
	pricing   *PricingEngine
	publisher events.Publisher
	locks     *cartLocker
}

func NewCartUsecase(cartRepo repo.CartRepository, pricing *PricingEngine, publisher events.Publisher) *CartUsecase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CartUsecase{
		cartRepo:  cartRepo,
		pricing:   pricing,
		publisher: publisher,
		locks:     newCartLocker(),
	}
}

// POST /carts/add の入力
type CreateCartInput struct {
	UserID   int64
	Products []validator.ProductEntry
}

// PUT /carts/{id} の入力
type UpdateCartInput struct {
	Merge    bool
	Products []validator.ProductEntry
}

// 明細のレスポンス。idは商品ID（DummyJSON互換のワイヤ形式）。
type CartItemResponse struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Price              float64 `json:"price"`
	Quantity           int64   `json:"quantity"`
	Total              float64 `json:"total"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountedTotal    float64 `json:"discountedTotal"`
	Thumbnail          string  `json:"thumbnail,omitempty"`
}

type CartResponse struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"userId"`
	Products        []CartItemResponse `json:"products"`
	Total           float64            `json:"total"`
	DiscountedTotal float64            `json:"discountedTotal"`
	TotalProducts   int64              `json:"totalProducts"`
	TotalQuantity   int64              `json:"totalQuantity"`
	IsDeleted       bool               `json:"isDeleted,omitempty"`
	DeletedOn       *time.Time         `json:"deletedOn,omitempty"`
}

// GET /carts の一覧レスポンス
type CartListResponse struct {
	Carts []CartResponse `json:"carts"`
	Total int64          `json:"total"`
	Limit int            `json:"limit"`
	Skip  int            `json:"skip"`
}

// GET /carts/user/{userId} のレスポンス
type UserCartsResponse struct {
	Carts []CartResponse `json:"carts"`
}

// Create はカートを新規作成する。
// 検証→全明細の価格付け→保存の順で、状態に触れる前に失敗を出し切る。
func (u *CartUsecase) Create(ctx context.Context, in CreateCartInput) (CartResponse, error) {
	if ve := validator.ValidateCreate(in.UserID, in.Products); ve != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, ve.Kind, ve.Message)
	}

	items, err := u.priceEntries(ctx, dedupeEntries(in.Products))
	if err != nil {
		return CartResponse{}, err
	}

	t := u.pricing.Totals(items)
	cart := model.Cart{
		UserID:          in.UserID,
		Items:           items,
		Total:           t.Total,
		DiscountedTotal: t.DiscountedTotal,
		TotalProducts:   t.TotalProducts,
		TotalQuantity:   t.TotalQuantity,
	}

	if err := checkInvariants(cart); err != nil {
		return CartResponse{}, err
	}

	created, err := u.cartRepo.Create(ctx, cart)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}

	u.publisher.Publish(events.EventCartCreated, events.CartEventPayload{
		CartID:        created.ID,
		UserID:        created.UserID,
		Total:         created.Total,
		TotalQuantity: created.TotalQuantity,
	})

	return toCartResponse(created), nil
}

// Get はカートを1件返す。ソフトデリート済みも読み取りは可能で、
// isDeleted / deletedOn と削除時点の集計値をそのまま返す。
func (u *CartUsecase) Get(ctx context.Context, cartID int64) (CartResponse, error) {
	cart, err := u.cartRepo.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}
	return toCartResponse(cart), nil
}

// List は未削除カートの一覧（作成順、limit/skipページング）。
func (u *CartUsecase) List(ctx context.Context, limit int, skip int) (CartListResponse, error) {
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 0 || limit > maxListLimit {
		return CartListResponse{}, NewHTTPError(http.StatusBadRequest, validator.KindMalformedRequest, "invalid limit")
	}
	if skip < 0 {
		return CartListResponse{}, NewHTTPError(http.StatusBadRequest, validator.KindMalformedRequest, "invalid skip")
	}

	carts, total, err := u.cartRepo.List(ctx, limit, skip)
	if err != nil {
		return CartListResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}

	return CartListResponse{
		Carts: toCartResponses(carts),
		Total: total,
		Limit: limit,
		Skip:  skip,
	}, nil
}

// ListByUser は指定ユーザーの未削除カートを作成順で返す。
func (u *CartUsecase) ListByUser(ctx context.Context, userID int64) (UserCartsResponse, error) {
	if userID <= 0 {
		return UserCartsResponse{}, NewHTTPError(http.StatusBadRequest, validator.KindInvalidUserID, "userId must be a positive integer")
	}

	carts, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return UserCartsResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}

	return UserCartsResponse{Carts: toCartResponses(carts)}, nil
}

// Update はカートの明細を更新する。
// merge=true: 同一商品は数量を「置き換え」、新規は末尾に追加、触れていない行は残す。
// merge=false: 明細を丸ごと差し替える。
// どちらも集計値を再計算し、不変条件を確認してから保存する。
func (u *CartUsecase) Update(ctx context.Context, cartID int64, in UpdateCartInput) (CartResponse, error) {
	if cartID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}
	if ve := validator.ValidateUpdate(in.Products); ve != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, ve.Kind, ve.Message)
	}

	// カタログ参照はロックの外で済ませる（外部呼び出しを握ったまま待たせない）
	entries := dedupeEntries(in.Products)
	incoming, err := u.priceEntries(ctx, entries)
	if err != nil {
		return CartResponse{}, err
	}

	release, err := u.acquireLock(ctx, cartID)
	if err != nil {
		return CartResponse{}, err
	}
	defer release()

	cart, err := u.cartRepo.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}
	if cart.IsDeleted {
		// 削除済みは終端状態。以降の変更は受け付けない
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}

	if in.Merge {
		cart.Items = mergeItems(cart.Items, entries, incoming)
	} else {
		cart.Items = incoming
	}

	t := u.pricing.Totals(cart.Items)
	cart.Total = t.Total
	cart.DiscountedTotal = t.DiscountedTotal
	cart.TotalProducts = t.TotalProducts
	cart.TotalQuantity = t.TotalQuantity

	if err := checkInvariants(cart); err != nil {
		return CartResponse{}, err
	}

	saved, err := u.cartRepo.ReplaceItems(ctx, cart)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}

	u.publisher.Publish(events.EventCartUpdated, events.CartEventPayload{
		CartID:        saved.ID,
		UserID:        saved.UserID,
		Total:         saved.Total,
		TotalQuantity: saved.TotalQuantity,
	})

	return toCartResponse(saved), nil
}

// SoftDelete はカートを削除済み（終端状態）へ遷移させる。
// 明細と集計値は削除直前のまま残し、レスポンスに全量を返す。
// 既に削除済みの2回目はCartNotFound（冪等にはしない。テストで固定済み）。
func (u *CartUsecase) SoftDelete(ctx context.Context, cartID int64) (CartResponse, error) {
	if cartID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}

	release, err := u.acquireLock(ctx, cartID)
	if err != nil {
		return CartResponse{}, err
	}
	defer release()

	deleted, err := u.cartRepo.MarkDeleted(ctx, cartID, time.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, KindCartNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "db error")
	}

	u.publisher.Publish(events.EventCartDeleted, events.CartEventPayload{
		CartID:        deleted.ID,
		UserID:        deleted.UserID,
		Total:         deleted.Total,
		TotalQuantity: deleted.TotalQuantity,
	})

	return toCartResponse(deleted), nil
}

func (u *CartUsecase) acquireLock(ctx context.Context, cartID int64) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	release, err := u.locks.Acquire(lockCtx, cartID)
	if err != nil {
		return nil, NewHTTPError(http.StatusServiceUnavailable, KindBusy, "cart is busy, retry later")
	}
	return release, nil
}

// 全行をカタログ価格でスナップショット化
func (u *CartUsecase) priceEntries(ctx context.Context, entries []validator.ProductEntry) ([]model.CartItem, error) {
	items := make([]model.CartItem, 0, len(entries))
	for _, e := range entries {
		item, err := u.pricing.PriceLine(ctx, e.ProductID, e.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// 同一商品IDがリクエストに重複したら後勝ち（順序は初出位置を保つ）
func dedupeEntries(entries []validator.ProductEntry) []validator.ProductEntry {
	idx := make(map[int64]int, len(entries))
	out := make([]validator.ProductEntry, 0, len(entries))
	for _, e := range entries {
		if i, ok := idx[e.ProductID]; ok {
			out[i] = e
			continue
		}
		idx[e.ProductID] = len(out)
		out = append(out, e)
	}
	return out
}

// merge更新：既存行は数量を置き換え（スナップショット価格を維持）、新規行は末尾へ。
// リクエストに無い既存行はそのまま残す。
func mergeItems(existing []model.CartItem, entries []validator.ProductEntry, incoming []model.CartItem) []model.CartItem {
	qtyByID := make(map[int64]int64, len(entries))
	for _, e := range entries {
		qtyByID[e.ProductID] = e.Quantity
	}

	merged := make([]model.CartItem, 0, len(existing)+len(incoming))
	seen := make(map[int64]bool, len(existing))

	for _, it := range existing {
		if qty, ok := qtyByID[it.ProductID]; ok {
			it = RepriceLine(it, qty)
		}
		seen[it.ProductID] = true
		merged = append(merged, it)
	}

	for _, it := range incoming {
		if !seen[it.ProductID] {
			merged = append(merged, it)
		}
	}
	return merged
}

// 保存前の不変条件チェック。破れていたら500（黙って直さない）。
func checkInvariants(cart model.Cart) error {
	var sumTotal, sumDiscounted float64
	var sumQty int64
	seen := make(map[int64]bool, len(cart.Items))

	for _, it := range cart.Items {
		if seen[it.ProductID] {
			return NewHTTPError(http.StatusInternalServerError, KindInternalError, "duplicate product in cart")
		}
		seen[it.ProductID] = true

		if it.DiscountedTotal > it.Total+totalsTolerance {
			return NewHTTPError(http.StatusInternalServerError, KindInternalError, "item discount exceeds total")
		}
		sumTotal += it.Total
		sumDiscounted += it.DiscountedTotal
		sumQty += it.Quantity
	}

	if cart.TotalProducts != int64(len(cart.Items)) {
		return NewHTTPError(http.StatusInternalServerError, KindInternalError, "totalProducts mismatch")
	}
	if cart.TotalQuantity != sumQty {
		return NewHTTPError(http.StatusInternalServerError, KindInternalError, "totalQuantity mismatch")
	}
	if math.Abs(cart.Total-round2(sumTotal)) > totalsTolerance {
		return NewHTTPError(http.StatusInternalServerError, KindInternalError, "total mismatch")
	}
	if cart.DiscountedTotal > cart.Total+totalsTolerance {
		return NewHTTPError(http.StatusInternalServerError, KindInternalError, "discountedTotal exceeds total")
	}
	return nil
}

func toCartResponse(cart model.Cart) CartResponse {
	products := make([]CartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		products = append(products, CartItemResponse{
			ID:                 it.ProductID,
			Title:              it.Title,
			Price:              it.UnitPrice,
			Quantity:           it.Quantity,
			Total:              it.Total,
			DiscountPercentage: it.DiscountPercentage,
			DiscountedTotal:    it.DiscountedTotal,
			Thumbnail:          it.Thumbnail,
		})
	}

	return CartResponse{
		ID:              cart.ID,
		UserID:          cart.UserID,
		Products:        products,
		Total:           cart.Total,
		DiscountedTotal: cart.DiscountedTotal,
		TotalProducts:   cart.TotalProducts,
		TotalQuantity:   cart.TotalQuantity,
		IsDeleted:       cart.IsDeleted,
		DeletedOn:       cart.DeletedAt,
	}
}

func toCartResponses(carts []model.Cart) []CartResponse {
	out := make([]CartResponse, 0, len(carts))
	for _, c := range carts {
		out = append(out, toCartResponse(c))
	}
	return out
}
