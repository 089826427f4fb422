package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Review, error)
	ListByBookID(ctx context.Context, bookID int64) ([]model.Review, error)
	// 所有者が一致する行だけ更新/削除する
	UpdateComment(ctx context.Context, reviewID int64, userID int64, comment string) (model.Review, error)
	SoftDelete(ctx context.Context, reviewID int64, userID int64) error
}
