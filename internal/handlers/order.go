package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/auth"
	"github.com/kmazurek/storefront/internal/events"
	"github.com/kmazurek/storefront/internal/models"
	"github.com/kmazurek/storefront/internal/service/checkout"
)

type OrderHandler struct {
	DB       *gorm.DB
	Checkout *checkout.Service
	Producer Producer
}

var orderViewGate = auth.RequireOwnerOr(auth.PermAdmin)

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment token is required")
	}

	order, err := h.Checkout.Checkout(c.Request().Context(), userID, req.Token)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Producer, events.TopicOrderEvents, fmt.Sprint(userID), map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
		"charge":  order.Charge,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := orderViewGate.Check(user, order.UserID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}
