package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shopcore/marketplace/internal/models"
	"github.com/shopcore/marketplace/internal/service"
)

type OrderHandler struct {
	Svc       *service.OrderService
	JWTSecret []byte
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Svc.Checkout(c.Request().Context(), userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Svc.GetOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	orders, err := h.Svc.ListOrders(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Svc.CancelOrder(c.Request().Context(), userID, orderID, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// TransitionStatus is the administrative path; the gateway in front decides
// who is an admin.
func (h *OrderHandler) TransitionStatus(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Status         string `json:"status"`
		Reason         string `json:"reason,omitempty"`
		TrackingNumber string `json:"tracking_number,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status := models.OrderStatus(req.Status)
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	order, err := h.Svc.TransitionStatus(c.Request().Context(), orderID, status, service.TransitionMetadata{
		Reason:         req.Reason,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// PaymentCallback is the bookkeeping endpoint the payment collaborator
// calls once a charge settles. Signature verification happens upstream.
func (h *OrderHandler) PaymentCallback(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		TransactionID string `json:"transaction_id"`
		Success       bool   `json:"success"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Svc.ConfirmPayment(c.Request().Context(), orderID, req.TransactionID, req.Success)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}
