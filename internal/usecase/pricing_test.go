package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func TestPricingEngine_PriceLine_Snapshot(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(144)).Return(model.Product{
		ID:                 144,
		Title:              "Cricket Helmet",
		Price:              44.99,
		DiscountPercentage: 10,
		Thumbnail:          "https://cdn.example.com/products/144/thumbnail.jpg",
	}, nil)

	e := usecase.NewPricingEngine(products)

	item, err := e.PriceLine(context.Background(), 144, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(144), item.ProductID)
	assert.Equal(t, "Cricket Helmet", item.Title)
	assert.Equal(t, int64(2), item.Quantity)
	assert.InDelta(t, 44.99, item.UnitPrice, 0.001)
	assert.InDelta(t, 89.98, item.Total, 0.01)
	assert.InDelta(t, 80.98, item.DiscountedTotal, 0.01) // 89.98 * 0.9
	assert.LessOrEqual(t, item.DiscountedTotal, item.Total)
}

func TestPricingEngine_PriceLine_NoDiscount(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(98)).Return(model.Product{
		ID: 98, Title: "Watch", Price: 100,
	}, nil)

	e := usecase.NewPricingEngine(products)

	item, err := e.PriceLine(context.Background(), 98, 3)
	assert.NoError(t, err)
	assert.InDelta(t, 300.0, item.Total, 0.01)
	// 割引0%なら割引後=総額
	assert.InDelta(t, item.Total, item.DiscountedTotal, 0.001)
}

func TestPricingEngine_PriceLine_ProductNotFound(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(9999)).Return(model.Product{}, repo.ErrNotFound)

	e := usecase.NewPricingEngine(products)

	_, err := e.PriceLine(context.Background(), 9999, 1)
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusBadRequest, he.Status)
		assert.Equal(t, usecase.KindProductNotFound, he.Kind)
	}
}

func TestPricingEngine_PriceLine_CatalogError(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{}, errors.New("connection refused"))

	e := usecase.NewPricingEngine(products)

	_, err := e.PriceLine(context.Background(), 1, 1)
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusInternalServerError, he.Status)
		assert.Equal(t, usecase.KindInternalError, he.Kind)
	}
}

func TestRepriceLine_KeepsSnapshotPrice(t *testing.T) {
	item := model.CartItem{
		ProductID:          144,
		UnitPrice:          44.99,
		DiscountPercentage: 10,
		Quantity:           2,
		Total:              89.98,
		DiscountedTotal:    80.98,
	}

	out := usecase.RepriceLine(item, 5)
	assert.Equal(t, int64(5), out.Quantity)
	assert.InDelta(t, 44.99, out.UnitPrice, 0.001) // スナップショット維持
	assert.InDelta(t, 224.95, out.Total, 0.01)
	assert.InDelta(t, 202.46, out.DiscountedTotal, 0.01)
}

func TestTotals_Aggregation(t *testing.T) {
	e := usecase.NewPricingEngine(new(ProductRepoMock))

	items := []model.CartItem{
		{ProductID: 1, Quantity: 2, Total: 19.98, DiscountedTotal: 18.55},
		{ProductID: 98, Quantity: 1, Total: 100, DiscountedTotal: 100},
	}

	tt := e.Totals(items)
	assert.Equal(t, int64(2), tt.TotalProducts)
	assert.Equal(t, int64(3), tt.TotalQuantity)
	assert.InDelta(t, 119.98, tt.Total, 0.01)
	assert.InDelta(t, 118.55, tt.DiscountedTotal, 0.01)
	assert.LessOrEqual(t, tt.DiscountedTotal, tt.Total)
}

func TestTotals_Empty(t *testing.T) {
	e := usecase.NewPricingEngine(new(ProductRepoMock))

	tt := e.Totals(nil)
	assert.Equal(t, int64(0), tt.TotalProducts)
	assert.Equal(t, int64(0), tt.TotalQuantity)
	assert.Zero(t, tt.Total)
	assert.Zero(t, tt.DiscountedTotal)
}
