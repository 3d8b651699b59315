package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Kind, Message: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.KindInternalError, Message: "internal error"})
}

// /cartsのHTTP。ビジネスロジックは持たない（変換とステータス対応だけ）。
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type ProductQuantityRequest struct {
	ID       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
}

type AddCartRequest struct {
	UserID   int64                    `json:"userId"`
	Products []ProductQuantityRequest `json:"products"`
}

type UpdateCartRequest struct {
	// 省略時はtrue（部分更新）
	Merge    *bool                    `json:"merge"`
	Products []ProductQuantityRequest `json:"products"`
}

// /carts配下を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/carts", h.list)
	e.GET("/carts/:id", h.get)
	e.GET("/carts/user/:userId", h.listByUser)
	e.POST("/carts/add", h.add)
	e.PUT("/carts/:id", h.update)
	e.DELETE("/carts/:id", h.remove)
}

func (h *CartHandler) list(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid limit"})
		}
		limit = n
	}

	skip := 0
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid skip"})
		}
		skip = n
	}

	out, err := h.uc.List(c.Request().Context(), limit, skip)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) get(c echo.Context) error {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid cart id"})
	}

	out, err := h.uc.Get(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) listByUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindInvalidUserID, Message: "userId must be a positive integer"})
	}

	out, err := h.uc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) add(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid body"})
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateCartInput{
		UserID:   req.UserID,
		Products: toEntries(req.Products),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) update(c echo.Context) error {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid cart id"})
	}

	var req UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid body"})
	}

	merge := true
	if req.Merge != nil {
		merge = *req.Merge
	}

	out, err := h.uc.Update(c.Request().Context(), cartID, usecase.UpdateCartInput{
		Merge:    merge,
		Products: toEntries(req.Products),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) remove(c echo.Context) error {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.KindMalformedRequest, Message: "invalid cart id"})
	}

	out, err := h.uc.SoftDelete(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func toEntries(products []ProductQuantityRequest) []validator.ProductEntry {
	entries := make([]validator.ProductEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, validator.ProductEntry{
			ProductID: p.ID,
			Quantity:  p.Quantity,
		})
	}
	return entries
}
