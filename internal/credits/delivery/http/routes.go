package http

import (
	"github.com/clipforge/pipeline/internal/credits"
	"github.com/labstack/echo/v4"
)

func MapCreditsRoutes(group *echo.Group, h credits.Handler) {
	group.GET("/balance", h.GetBalance())
	group.GET("/transactions", h.ListTransactions())
}
