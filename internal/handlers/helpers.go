package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/auth"
	"github.com/kmazurek/storefront/internal/events"
	"github.com/kmazurek/storefront/internal/models"
)

// Producer is the domain-event sink. Publishing is best-effort: failures
// are logged, never surfaced to the caller.
type Producer interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

var _ Producer = (*events.Producer)(nil)

func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(apperr.Status(err), err.Error())
}

// currentUser loads the authenticated user with their permission set.
func currentUser(c echo.Context, db *gorm.DB) (*models.User, error) {
	userID, err := auth.UserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	return &user, nil
}

func publish(c echo.Context, p Producer, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
