package binstore

import "github.com/labstack/echo/v4"

func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/b", h.requireKey)

	g.POST("", h.CreateBin)
	g.GET("/:id/latest", h.ReadLatest)
	g.PUT("/:id", h.UpdateBin)
}
