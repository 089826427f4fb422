package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type WishlistAddRequest struct {
	BookID int64 `json:"book_id"`
}

// ウィッシュリストは未ログインでも使える。GuestIDミドルウェアがIDを用意する。
func (h *WishlistHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/wishlist")
	g.Use(middleware.GuestID())

	g.GET("", h.get)
	g.POST("/items", h.add)
	g.DELETE("/items/:book_id", h.remove)
}

func (h *WishlistHandler) get(c echo.Context) error {
	guestID, ok := getGuestIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "guest id required"})
	}

	out, err := h.uc.GetWishlist(c.Request().Context(), guestID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) add(c echo.Context) error {
	guestID, ok := getGuestIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "guest id required"})
	}

	var req WishlistAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddItem(c.Request().Context(), guestID, req.BookID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) remove(c echo.Context) error {
	guestID, ok := getGuestIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "guest id required"})
	}

	bookID, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid book_id"})
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), guestID, bookID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
