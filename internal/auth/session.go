package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/kmazurek/storefront/internal/apperr"
)

const (
	// CookieName is the HttpOnly session cookie carrying the signed token.
	CookieName = "token"

	// SessionTTL matches the previous backend: sessions live for a year.
	SessionTTL = 365 * 24 * time.Hour

	ctxUserID = "userID"
)

// SignSession issues an HS256 token carrying the user id as subject.
func SignSession(userID uint, secret []byte) (string, time.Time, error) {
	exp := time.Now().Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseSession verifies the signature and expiry and returns the user id.
func ParseSession(raw string, secret []byte) (uint, error) {
	t, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrUnauthenticated
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return 0, apperr.ErrUnauthenticated
	}
	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, apperr.ErrUnauthenticated
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, apperr.ErrUnauthenticated
	}
	return uint(id), nil
}

func SessionCookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func ClearSessionCookie() *http.Cookie {
	return SessionCookie("", time.Now().Add(-time.Hour))
}

// RequireLogin is the session guard: without a valid session cookie the
// request is rejected before any handler or database work runs.
func RequireLogin(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, apperr.ErrUnauthenticated.Error())
			}
			userID, err := ParseSession(cookie.Value, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, apperr.ErrUnauthenticated.Error())
			}
			c.Set(ctxUserID, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id attached by RequireLogin.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(ctxUserID).(uint)
	if !ok || id == 0 {
		return 0, apperr.ErrUnauthenticated
	}
	return id, nil
}

// SetUserID attaches an identity to the context the way RequireLogin does.
func SetUserID(c echo.Context, id uint) {
	c.Set(ctxUserID, id)
}
