package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// リクエスト全体のデッドラインをctxに張る。
// ロック取得・DB・カタログ参照はこのctxで打ち切られる。
func RequestTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
