package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type PurchasedBookRepository interface {
	CreateBulk(ctx context.Context, entries []model.PurchasedBook) error
	ListByUserID(ctx context.Context, userID int64) ([]model.PurchasedBook, error)
}
