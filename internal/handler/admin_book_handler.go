package handler

import (
	"net/http"
	"strconv"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminBookHandler struct {
	uc *usecase.BookUsecase
}

func NewAdminBookHandler(uc *usecase.BookUsecase) *AdminBookHandler {
	return &AdminBookHandler{uc: uc}
}

type AdminBookRequest struct {
	Name            string  `json:"name"`
	Author          string  `json:"author"`
	Price           int64   `json:"price"`
	DiscountRate    int64   `json:"discount_rate"`
	Rating          float64 `json:"rating"`
	PublicationDate string  `json:"publication_date"`
	Img             string  `json:"img"`
	Description     string  `json:"description"`
	CategoryID      int64   `json:"category_id"`
	Stock           int64   `json:"stock"`
}

func (h *AdminBookHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.StaffRoleGuard())

	admin.POST("/books", h.create)
	admin.PUT("/books/:id", h.update)
	admin.DELETE("/books/:id", h.delete)
}

func (h *AdminBookHandler) create(c echo.Context) error {
	var req AdminBookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	b, err := h.uc.AdminCreateBook(c.Request().Context(), toAdminBookInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *AdminBookHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminBookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	b, err := h.uc.AdminUpdateBook(c.Request().Context(), id, toAdminBookInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *AdminBookHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteBook(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toAdminBookInput(req AdminBookRequest) usecase.AdminBookInput {
	return usecase.AdminBookInput{
		Name:            req.Name,
		Author:          req.Author,
		Price:           req.Price,
		DiscountRate:    req.DiscountRate,
		Rating:          req.Rating,
		PublicationDate: req.PublicationDate,
		Img:             req.Img,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		Stock:           req.Stock,
	}
}
