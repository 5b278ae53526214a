// Package checkout implements the cart aggregation and order commit
// sequence: recompute the total server-side, charge it externally, then
// persist the order with snapshotted items and clear the cart.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/logging"
	"github.com/kmazurek/storefront/internal/models"
	"github.com/kmazurek/storefront/internal/payment"
)

// Currency every charge is captured in.
const Currency = "USD"

// Charger is the external payment collaborator.
type Charger interface {
	Charge(ctx context.Context, amount int64, currency, source, idempotencyKey string) (*payment.Charge, error)
}

type Service struct {
	DB      *gorm.DB
	Charger Charger
}

// LoadCart returns the user's cart rows with their live items preloaded
// plus the total in minor currency units. Rows whose item no longer exists
// are skipped. Read-only.
func (s *Service) LoadCart(ctx context.Context, userID uint) ([]models.CartItem, int64, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.ErrNotFound
		}
		return nil, 0, err
	}

	var rows []models.CartItem
	if err := s.DB.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	kept := rows[:0]
	for _, row := range rows {
		if row.Item.ID == 0 {
			continue
		}
		total += row.Item.Price * int64(row.Quantity)
		kept = append(kept, row)
	}
	return kept, total, nil
}

// Checkout charges the cart total and commits the order.
//
// The charge is an external call and cannot join the database transaction:
// a crash between the capture and the commit leaves a captured charge with
// no order. Order creation, item snapshotting and cart clearing are one
// transaction keyed by the charge id, whose unique column keeps a replay
// from inserting a second order for the same capture.
func (s *Service) Checkout(ctx context.Context, userID uint, paymentToken string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", userID)

	rows, total, err := s.LoadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	charge, err := s.Charger.Charge(ctx, total, Currency, paymentToken, uuid.NewString())
	if err != nil {
		l.Error("charge failed", "total", total, "error", err)
		return nil, apperr.ErrPaymentFailed
	}

	order := models.Order{
		UserID:    userID,
		Total:     charge.Amount,
		Charge:    charge.ID,
		CreatedAt: time.Now().Unix(),
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		snapshots := make([]models.OrderItem, 0, len(rows))
		cartIDs := make([]uint, 0, len(rows))
		for _, row := range rows {
			snapshots = append(snapshots, models.OrderItem{
				OrderID:     order.ID,
				UserID:      userID,
				Title:       row.Item.Title,
				Description: row.Item.Description,
				Price:       row.Item.Price,
				Image:       row.Item.Image,
				LargeImage:  row.Item.LargeImage,
				Quantity:    row.Quantity,
			})
			cartIDs = append(cartIDs, row.ID)
		}
		if err := tx.Create(&snapshots).Error; err != nil {
			return err
		}

		if err := tx.Where("id IN ?", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		order.Items = snapshots
		return nil
	})
	if txErr != nil {
		l.Error("order commit failed after charge", "charge", charge.ID, "total", total, "error", txErr)
		return nil, txErr
	}

	l.Info("order committed", "order_id", order.ID, "charge", charge.ID, "total", order.Total)
	return &order, nil
}
