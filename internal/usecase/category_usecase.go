package usecase

import (
	"context"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
}

func NewCategoryUsecase(categories repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categories: categories}
}

func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categories.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}

type CategoryInput struct {
	Name string `json:"name"`
}

func (u *CategoryUsecase) AdminCreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	created, err := u.categories.Create(ctx, model.Category{Name: name})
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) AdminUpdateCategory(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	c, err := u.categories.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	c.Name = name
	if err := u.categories.Update(ctx, c); err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CategoryUsecase) AdminDeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.categories.FindByID(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.categories.SoftDelete(ctx, id); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
