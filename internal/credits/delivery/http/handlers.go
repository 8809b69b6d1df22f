package http

import (
	"net/http"
	"strconv"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type creditsHandler struct {
	creditsUC credits.UseCase
}

func NewCreditsHandler(creditsUC credits.UseCase) credits.Handler {
	return &creditsHandler{
		creditsUC: creditsUC,
	}
}

func (h *creditsHandler) GetBalance() echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID, err := uuid.Parse(c.Request().Header.Get("X-Org-ID"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or missing org id"})
		}
		balance, err := h.creditsUC.Balance(c.Request().Context(), orgID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
	}
}

func (h *creditsHandler) ListTransactions() echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID, err := uuid.Parse(c.Request().Header.Get("X-Org-ID"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid or missing org id"})
		}
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		txs, err := h.creditsUC.Transactions(c.Request().Context(), orgID, limit)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, txs)
	}
}
