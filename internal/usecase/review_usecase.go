package usecase

import (
	"context"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type ReviewUsecase struct {
	reviews repo.ReviewRepository
	books   repo.BookRepository
	users   repo.UserRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, books repo.BookRepository, users repo.UserRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, books: books, users: users}
}

type CreateReviewInput struct {
	BookID  int64  `json:"book_id"`
	Comment string `json:"comment"`
}

func (u *ReviewUsecase) CreateReview(ctx context.Context, userID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.BookID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "comment required")
	}

	if _, err := u.books.FindByID(ctx, in.BookID); err != nil {
		if err == repo.ErrNotFound {
			return model.Review{}, NewHTTPError(http.StatusNotFound, "book not found")
		}
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 表示名はレビュー作成時に固定する
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	created, err := u.reviews.Create(ctx, model.Review{
		BookID:  in.BookID,
		UserID:  userID,
		Name:    user.Name,
		Comment: comment,
	})
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *ReviewUsecase) ListMyReviews(ctx context.Context, userID int64) ([]model.Review, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	reviews, err := u.reviews.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return reviews, nil
}

func (u *ReviewUsecase) ListBookReviews(ctx context.Context, bookID int64) ([]model.Review, error) {
	if bookID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}

	reviews, err := u.reviews.ListByBookID(ctx, bookID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return reviews, nil
}

// UpdateReview は本人のレビューだけ編集できる。他人の行は404扱い。
func (u *ReviewUsecase) UpdateReview(ctx context.Context, userID int64, reviewID int64, comment string) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "comment required")
	}

	updated, err := u.reviews.UpdateComment(ctx, reviewID, userID, comment)
	if err == repo.ErrNotFound {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *ReviewUsecase) DeleteReview(ctx context.Context, userID int64, reviewID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.reviews.SoftDelete(ctx, reviewID, userID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
