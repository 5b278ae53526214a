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
)

type CartHandler struct {
	DB       *gorm.DB
	Producer Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	var rows []models.CartItem
	if err := h.DB.Preload("Item").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}

// AddToCart adds one unit of an item; an existing row for the same item is
// incremented by exactly 1. The check-then-write pair is not atomic:
// concurrent adds for the same user and item can race.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		ItemID uint `json:"item_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var item models.Item
	if err := h.DB.First(&item, req.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var row models.CartItem
	tx := h.DB.Where("user_id = ? AND item_id = ?", userID, req.ItemID).First(&row)
	if tx.Error == nil {
		row.Quantity += 1
		if err := h.DB.Save(&row).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		row.Item = item
		h.publishCart(c, userID, row)
		return c.JSON(http.StatusOK, row)
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	row = models.CartItem{
		UserID:   userID,
		ItemID:   req.ItemID,
		Quantity: 1,
	}
	if err := h.DB.Create(&row).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	row.Item = item
	h.publishCart(c, userID, row)
	return c.JSON(http.StatusOK, row)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var row models.CartItem
	if err := h.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if row.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your cart item")
	}

	if err := h.DB.Delete(&row).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":       "cart_item_removed",
		"userID":     userID,
		"cartItemID": row.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"deleted_item": row.ID})
}

func (h *CartHandler) publishCart(c echo.Context, userID uint, row models.CartItem) {
	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]any{
		"type":     "cart_updated",
		"userID":   userID,
		"itemID":   row.ItemID,
		"quantity": row.Quantity,
	})
}
