package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-app-secret")

func TestSignParseSession(t *testing.T) {
	t.Parallel()

	token, exp, err := SignSession(42, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), exp, time.Minute)

	userID, err := ParseSession(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestParseSession_WrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := SignSession(42, testSecret)
	require.NoError(t, err)

	_, err = ParseSession(token, []byte("other-secret"))
	require.Error(t, err)
}

func TestRequireLogin_NoCookie(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		return nil
	}

	err := RequireLogin(testSecret)(next)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.False(t, called, "handler must not run without a session")
}

func TestRequireLogin_InvalidToken(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireLogin(testSecret)(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLogin_ValidToken(t *testing.T) {
	t.Parallel()

	token, _, err := SignSession(7, testSecret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, RequireLogin(testSecret)(func(c echo.Context) error {
		userID, err := UserID(c)
		require.NoError(t, err)
		assert.Equal(t, uint(7), userID)
		return nil
	})(c))
}
