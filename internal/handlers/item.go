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
	"github.com/kmazurek/storefront/internal/cache"
	"github.com/kmazurek/storefront/internal/events"
	"github.com/kmazurek/storefront/internal/models"
	"github.com/kmazurek/storefront/internal/util"
)

type ItemHandler struct {
	DB       *gorm.DB
	Producer Producer
	Cache    *cache.ItemCache
}

var itemDeleteGate = auth.RequireOwnerOr(auth.PermAdmin, auth.PermItemDelete)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	if item := h.Cache.Get(ctx, uint(id)); item != nil {
		return c.JSON(http.StatusOK, item)
	}

	var item models.Item
	if err := h.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Cache.Set(ctx, &item); err != nil {
		c.Logger().Errorf("item cache set error: %v", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) GetItems(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Item{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Item
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Price       int64  `json:"price"`
		Image       string `json:"image"`
		LargeImage  string `json:"large_image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required and price must not be negative")
	}

	item := models.Item{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		LargeImage:  req.LargeImage,
		UserID:      userID,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicItemEvents, fmt.Sprint(userID), map[string]any{
		"type":   "item_created",
		"itemID": item.ID,
		"userID": userID,
		"title":  item.Title,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) PatchItem(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Price       *int64  `json:"price"`
		Image       *string `json:"image"`
		LargeImage  *string `json:"large_image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Updates are owner-only; elevated roles do not bypass this.
	if item.UserID != userID {
		return httpError(apperr.ErrForbidden)
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if req.LargeImage != nil {
		item.LargeImage = *req.LargeImage
	}

	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Cache.Invalidate(c.Request().Context(), item.ID); err != nil {
		c.Logger().Errorf("item cache invalidate error: %v", err)
	}

	publish(c, h.Producer, events.TopicItemEvents, fmt.Sprint(userID), map[string]any{
		"type":   "item_updated",
		"itemID": item.ID,
		"userID": userID,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := itemDeleteGate.Check(user, item.UserID); err != nil {
		return httpError(err)
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Cache.Invalidate(c.Request().Context(), item.ID); err != nil {
		c.Logger().Errorf("item cache invalidate error: %v", err)
	}

	publish(c, h.Producer, events.TopicItemEvents, fmt.Sprint(user.ID), map[string]any{
		"type":   "item_deleted",
		"itemID": item.ID,
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"deleted_item": item.ID})
}
