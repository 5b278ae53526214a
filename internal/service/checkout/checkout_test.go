package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/models"
	"github.com/kmazurek/storefront/internal/payment"
)

type fakeCharger struct {
	charge *payment.Charge
	err    error
	calls  int
	amount int64
}

func (f *fakeCharger) Charge(ctx context.Context, amount int64, currency, source, idempotencyKey string) (*payment.Charge, error) {
	f.calls++
	f.amount = amount
	if f.err != nil {
		return nil, f.err
	}
	if f.charge != nil {
		return f.charge, nil
	}
	return &payment.Charge{ID: "ch_test", Amount: amount}, nil
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func seedCart(t *testing.T, db *gorm.DB) (models.User, []models.CartItem) {
	t.Helper()

	user := models.User{Email: "buyer@example.com", PasswordHash: "x", Permissions: []string{"USER"}}
	require.NoError(t, db.Create(&user).Error)

	socks := models.Item{Title: "socks", Description: "warm", Price: 500, UserID: user.ID}
	boots := models.Item{Title: "boots", Description: "sturdy", Price: 1200, UserID: user.ID}
	require.NoError(t, db.Create(&socks).Error)
	require.NoError(t, db.Create(&boots).Error)

	rows := []models.CartItem{
		{UserID: user.ID, ItemID: socks.ID, Quantity: 2},
		{UserID: user.ID, ItemID: boots.ID, Quantity: 1},
	}
	require.NoError(t, db.Create(&rows).Error)
	return user, rows
}

func TestLoadCart_Total(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCart(t, db)
	svc := &Service{DB: db, Charger: &fakeCharger{}}

	rows, total, err := svc.LoadCart(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int64(2*500+1*1200), total)
}

func TestLoadCart_UnknownUser(t *testing.T) {
	db := initTestDB(t)
	svc := &Service{DB: db, Charger: &fakeCharger{}}

	_, _, err := svc.LoadCart(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLoadCart_SkipsVanishedItems(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCart(t, db)

	require.NoError(t, db.Where("title = ?", "boots").Delete(&models.Item{}).Error)

	svc := &Service{DB: db, Charger: &fakeCharger{}}
	rows, total, err := svc.LoadCart(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(1000), total)
}

func TestCheckout_Commit(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCart(t, db)

	charger := &fakeCharger{charge: &payment.Charge{ID: "ch_1", Amount: 2200}}
	svc := &Service{DB: db, Charger: charger}

	order, err := svc.Checkout(context.Background(), user.ID, "tok_visa")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, 1, charger.calls)
	assert.Equal(t, int64(2200), charger.amount, "charged amount must equal the aggregated total")
	assert.Equal(t, int64(2200), order.Total, "order total must equal the charged amount")
	assert.Equal(t, "ch_1", order.Charge)
	require.Len(t, order.Items, 2)

	byTitle := map[string]models.OrderItem{}
	for _, it := range order.Items {
		byTitle[it.Title] = it
	}
	assert.Equal(t, uint(2), byTitle["socks"].Quantity)
	assert.Equal(t, int64(500), byTitle["socks"].Price)
	assert.Equal(t, uint(1), byTitle["boots"].Quantity)
	assert.Equal(t, int64(1200), byTitle["boots"].Price)

	var cartCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error)
	assert.Zero(t, cartCount, "cart must be cleared after checkout")

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
}

func TestCheckout_DeclinedChargeLeavesNothingBehind(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCart(t, db)

	svc := &Service{DB: db, Charger: &fakeCharger{err: errors.New("card declined")}}

	_, err := svc.Checkout(context.Background(), user.ID, "tok_bad")
	assert.ErrorIs(t, err, apperr.ErrPaymentFailed)

	var orderCount, cartCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error)
	assert.Zero(t, orderCount, "a declined charge must not create an order")
	assert.Equal(t, int64(2), cartCount, "a declined charge must not touch the cart")
}

func TestCheckout_EmptyCart(t *testing.T) {
	db := initTestDB(t)

	user := models.User{Email: "empty@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	charger := &fakeCharger{}
	svc := &Service{DB: db, Charger: charger}

	_, err := svc.Checkout(context.Background(), user.ID, "tok_visa")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.Zero(t, charger.calls, "empty cart must never reach the payment collaborator")
}

func TestCheckout_SnapshotsSurviveItemDeletion(t *testing.T) {
	db := initTestDB(t)
	user, _ := seedCart(t, db)

	svc := &Service{DB: db, Charger: &fakeCharger{}}
	order, err := svc.Checkout(context.Background(), user.ID, "tok_visa")
	require.NoError(t, err)

	require.NoError(t, db.Where("1 = 1").Delete(&models.Item{}).Error)

	var got models.Order
	require.NoError(t, db.Preload("Items").First(&got, order.ID).Error)
	require.Len(t, got.Items, 2)
	assert.Equal(t, order.Total, got.Total)
}
