package server

import (
	"bookstore/internal/config"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e, cfg)
	h.Book.RegisterRoutes(e)
	h.AdminBook.RegisterRoutes(e, cfg)
	h.Category.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.AdminOrder.RegisterRoutes(e, cfg)
	h.User.RegisterRoutes(e, cfg)
	h.Review.RegisterRoutes(e, cfg)
	h.Wishlist.RegisterRoutes(e)
}
