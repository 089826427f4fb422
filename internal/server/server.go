package server

import (
	"time"

	"bookstore/internal/config"
	"bookstore/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers は起動に必要なハンドラ一式。
type Handlers struct {
	Auth       *handler.AuthHandler
	Book       *handler.BookHandler
	AdminBook  *handler.AdminBookHandler
	Category   *handler.CategoryHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	User       *handler.UserHandler
	Review     *handler.ReviewHandler
	Wishlist   *handler.WishlistHandler
}

func New(cfg config.Config, logger *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))

	registerRoutes(e, cfg, h)

	return e
}

func Start(e *echo.Echo, cfg config.Config) error {
	addr := ":8080"
	if cfg.Port != "" {
		if cfg.Port[0] != ':' {
			addr = ":" + cfg.Port
		} else {
			addr = cfg.Port
		}
	}
	return e.Start(addr)
}

// アクセスログをzapに流す
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Warn("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
