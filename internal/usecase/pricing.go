package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// PricingEngine は明細とカートの金額を計算します。
// カタログ参照はPriceLineだけ。集計（Totals）は純関数。
type PricingEngine struct {
	products repo.ProductRepository
}

func NewPricingEngine(products repo.ProductRepository) *PricingEngine {
	return &PricingEngine{products: products}
}

// カート全体の集計値
type CartTotals struct {
	Total           float64
	DiscountedTotal float64
	TotalProducts   int64
	TotalQuantity   int64
}

// PriceLine はカタログを引いて明細を作る。
// unit_price等は呼び出し時点のスナップショット。未知の商品はProductNotFound。
func (e *PricingEngine) PriceLine(ctx context.Context, productID int64, quantity int64) (model.CartItem, error) {
	p, err := e.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(
			http.StatusBadRequest, KindProductNotFound,
			fmt.Sprintf("product %d not found", productID),
		)
	}
	if err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, KindInternalError, "catalog error")
	}

	item := model.CartItem{
		ProductID:          p.ID,
		Title:              p.Title,
		UnitPrice:          p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Thumbnail:          p.Thumbnail,
	}
	return RepriceLine(item, quantity), nil
}

// RepriceLine は保存済みのスナップショット価格のまま数量だけ変えて再計算する。
// merge更新で既存行の数量を差し替えるときに使う。
func RepriceLine(item model.CartItem, quantity int64) model.CartItem {
	item.Quantity = quantity
	item.Total = round2(item.UnitPrice * float64(quantity))
	item.DiscountedTotal = discountedTotal(item.Total, item.DiscountPercentage)
	return item
}

// Totals は明細からカートの集計値を計算する純関数。副作用なし。
func (e *PricingEngine) Totals(items []model.CartItem) CartTotals {
	var t CartTotals
	for _, it := range items {
		t.Total += it.Total
		t.DiscountedTotal += it.DiscountedTotal
		t.TotalQuantity += it.Quantity
	}
	t.TotalProducts = int64(len(items))
	t.Total = round2(t.Total)
	t.DiscountedTotal = round2(t.DiscountedTotal)

	// 丸めで割引後が総額を超えないようにクランプ
	if t.DiscountedTotal > t.Total {
		t.DiscountedTotal = t.Total
	}
	return t
}

// 割引後の明細額。totalを超えず、負にもならない。
func discountedTotal(total float64, pct float64) float64 {
	d := round2(total * (1 - pct/100))
	if d > total {
		d = total
	}
	if d < 0 {
		d = 0
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
