package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxGuestIDKey  = "guest_id" // string
	guestIDHeader  = "X-Guest-Id"
	guestIDCookie  = "guest_id"
	guestCookieTTL = 180 * 24 * time.Hour
)

// GuestID はウィッシュリスト用の匿名ID。
// ヘッダ→Cookieの順で探し、無ければ発行してCookieに載せる。
func GuestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(guestIDHeader)

			if id == "" {
				if cookie, err := c.Cookie(guestIDCookie); err == nil {
					id = cookie.Value
				}
			}

			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     guestIDCookie,
					Value:    id,
					Path:     "/",
					Expires:  time.Now().Add(guestCookieTTL),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxGuestIDKey, id)
			return next(c)
		}
	}
}
