package server

import (
	"net/http"
	"time"

	appmw "app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoのエンジンを組み立てる。
func New(requestTimeout time.Duration) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(appmw.RequestTimeout(requestTimeout))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
