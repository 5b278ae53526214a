package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmazurek/storefront/internal/models"
)

func seedItem(t *testing.T, h *CartHandler, owner models.User, title string, price int64) models.Item {
	t.Helper()
	item := models.Item{Title: title, Description: title, Price: price, UserID: owner.ID}
	require.NoError(t, h.DB.Create(&item).Error)
	return item
}

func TestAddToCart_IncrementsExistingRow(t *testing.T) {
	h := &CartHandler{DB: initTestDB(t)}
	e := echo.New()
	user := createUser(t, h.DB, "buyer@example.com")
	item := seedItem(t, h, user, "socks", 500)

	add := func() error {
		c, _ := newJSONContext(t, e, http.MethodPost, "/cart", map[string]uint{"item_id": item.ID})
		asUser(c, user)
		return h.AddToCart(c)
	}

	require.NoError(t, add())
	require.NoError(t, add())

	var rows []models.CartItem
	require.NoError(t, h.DB.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 1, "second add must increment, not duplicate")
	assert.Equal(t, uint(2), rows[0].Quantity)
}

func TestAddToCart_UnknownItem(t *testing.T) {
	h := &CartHandler{DB: initTestDB(t)}
	e := echo.New()
	user := createUser(t, h.DB, "buyer@example.com")

	c, _ := newJSONContext(t, e, http.MethodPost, "/cart", map[string]uint{"item_id": 999})
	asUser(c, user)
	requireHTTPError(t, h.AddToCart(c), http.StatusNotFound)
}

func TestGetCart_NestedItems(t *testing.T) {
	h := &CartHandler{DB: initTestDB(t)}
	e := echo.New()
	user := createUser(t, h.DB, "buyer@example.com")
	item := seedItem(t, h, user, "boots", 1200)
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: user.ID, ItemID: item.ID, Quantity: 3}).Error)

	c, rec := newJSONContext(t, e, http.MethodGet, "/cart", nil)
	asUser(c, user)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"boots"`)
}

func TestRemoveFromCart_OwnershipEnforced(t *testing.T) {
	h := &CartHandler{DB: initTestDB(t)}
	e := echo.New()
	owner := createUser(t, h.DB, "owner@example.com")
	other := createUser(t, h.DB, "other@example.com")
	item := seedItem(t, h, owner, "socks", 500)

	row := models.CartItem{UserID: owner.ID, ItemID: item.ID, Quantity: 1}
	require.NoError(t, h.DB.Create(&row).Error)

	remove := func(actor models.User) error {
		id := strconv.Itoa(int(row.ID))
		c, _ := newJSONContext(t, e, http.MethodDelete, "/cart/"+id, nil)
		c.SetParamNames("id")
		c.SetParamValues(id)
		asUser(c, actor)
		return h.RemoveFromCart(c)
	}

	err := remove(other)
	requireHTTPError(t, err, http.StatusForbidden)
	he := err.(*echo.HTTPError)
	assert.Equal(t, "not your cart item", he.Message)

	var count int64
	require.NoError(t, h.DB.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "foreign delete must not remove the row")

	require.NoError(t, remove(owner))
	require.NoError(t, h.DB.Model(&models.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}
