package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler *OrderHandler
	CartHandler  *CartHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("/:id", d.CartHandler.DeleteOneFromCart)
	cart.DELETE("", d.CartHandler.DeleteAllFromCart)

	orders := v1.Group("/orders")
	orders.POST("", d.OrderHandler.Checkout)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	admin := v1.Group("/admin")
	admin.PATCH("/orders/:id/status", d.OrderHandler.TransitionStatus)

	// Payment collaborator callback; the gateway verifies its origin.
	v1.POST("/payments/orders/:id/callback", d.OrderHandler.PaymentCallback)
}

func pagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
