package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurek/storefront/internal/auth"
	"github.com/kmazurek/storefront/internal/handlers"
)

type Deps struct {
	DB            *gorm.DB
	AppSecret     []byte
	AuthHandler   *handlers.AuthHandler
	ItemHandler   *handlers.ItemHandler
	CartHandler   *handlers.CartHandler
	OrderHandler  *handlers.OrderHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/signup", d.AuthHandler.Signup)
	v1.POST("/signin", d.AuthHandler.Signin)
	v1.POST("/reset-request", d.AuthHandler.RequestReset)
	v1.POST("/reset", d.AuthHandler.ResetPassword)

	v1.GET("/items", d.ItemHandler.GetItems)
	v1.GET("/items/:id", d.ItemHandler.GetItem)
	v1.GET("/search", d.SearchHandler.Search)

	session := v1.Group("", auth.RequireLogin(d.AppSecret))

	session.POST("/signout", d.AuthHandler.Signout)
	session.GET("/me", d.AuthHandler.Me)
	session.GET("/users", d.AuthHandler.Users)
	session.PATCH("/users/:id/permissions", d.AuthHandler.UpdatePermissions)

	session.POST("/items", d.ItemHandler.CreateItem)
	session.PATCH("/items/:id", d.ItemHandler.PatchItem)
	session.DELETE("/items/:id", d.ItemHandler.DeleteItem)

	session.GET("/cart", d.CartHandler.GetCart)
	session.POST("/cart", d.CartHandler.AddToCart)
	session.DELETE("/cart/:id", d.CartHandler.RemoveFromCart)

	session.POST("/orders", d.OrderHandler.CreateOrder)
	session.GET("/orders", d.OrderHandler.GetOrders)
	session.GET("/orders/:id", d.OrderHandler.GetOrder)
}
