package credits

import "github.com/labstack/echo/v4"

type Handler interface {
	GetBalance() echo.HandlerFunc
	ListTransactions() echo.HandlerFunc
}
