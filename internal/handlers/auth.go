package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/apperr"
	"github.com/kmazurek/storefront/internal/auth"
	"github.com/kmazurek/storefront/internal/events"
	"github.com/kmazurek/storefront/internal/hash"
	"github.com/kmazurek/storefront/internal/mail"
	"github.com/kmazurek/storefront/internal/models"
)

// Mailer is the mail relay collaborator, used only for the password-reset
// notification.
type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

const resetTokenTTL = time.Hour

type AuthHandler struct {
	DB          *gorm.DB
	AppSecret   []byte
	Producer    Producer
	Mailer      Mailer
	MailFrom    string
	FrontendURL string
}

func (h *AuthHandler) setSession(c echo.Context, userID uint) error {
	token, exp, err := auth.SignSession(userID, h.AppSecret)
	if err != nil {
		return err
	}
	c.SetCookie(auth.SessionCookie(token, exp))
	return nil
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	var existing models.User
	result := h.DB.Where("email = ?", req.Email).First(&existing)
	if result.Error == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
		Permissions:  []string{auth.PermUser},
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.setSession(c, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Signin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrInvalidCredentials)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return httpError(apperr.ErrInvalidCredentials)
	}

	if err := h.setSession(c, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":   "user_signed_in",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Signout(c echo.Context) error {
	c.SetCookie(auth.ClearSessionCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "goodbye"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no such user found for email %s", req.Email))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	user.ResetToken = hex.EncodeToString(buf)
	user.ResetTokenExpiry = time.Now().Add(resetTokenTTL).Unix()
	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Fire-and-forget: a relay failure must not fail the reset request.
	if h.Mailer != nil {
		msg := mail.ResetEmail(h.MailFrom, user.Email, h.FrontendURL, user.ResetToken)
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Mailer.Send(ctx, msg); err != nil {
			c.Logger().Errorf("mail send error: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "reset token sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		ResetToken      string `json:"reset_token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Password == "" || req.Password != req.ConfirmPassword {
		return httpError(apperr.ErrPasswordMismatch)
	}
	if req.ResetToken == "" {
		return httpError(apperr.ErrInvalidOrExpiredToken)
	}

	var user models.User
	if err := h.DB.Where("reset_token = ?", req.ResetToken).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrInvalidOrExpiredToken)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Expiry boundary is inclusive: a token at exactly its expiry second
	// is still accepted.
	if user.ResetTokenExpiry < time.Now().Unix() {
		return httpError(apperr.ErrInvalidOrExpiredToken)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user.PasswordHash = pwHash
	user.ResetToken = ""
	user.ResetTokenExpiry = 0
	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.setSession(c, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":   "password_reset",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, user)
}

var permissionGate = auth.RequireRole(auth.PermAdmin, auth.PermPermissionUpdate)

func (h *AuthHandler) Users(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return httpError(err)
	}
	if err := permissionGate.Check(user, 0); err != nil {
		return httpError(err)
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) UpdatePermissions(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return httpError(err)
	}
	if err := permissionGate.Check(user, 0); err != nil {
		return httpError(err)
	}

	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || targetID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, p := range req.Permissions {
		if !auth.ValidPermission(p) {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown permission %q", p))
		}
	}

	var target models.User
	if err := h.DB.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpError(apperr.ErrNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	target.Permissions = req.Permissions
	if err := h.DB.Save(&target).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(target.ID), map[string]any{
		"type":        "permissions_updated",
		"userID":      target.ID,
		"permissions": target.Permissions,
		"updatedBy":   user.ID,
	})

	return c.JSON(http.StatusOK, target)
}
