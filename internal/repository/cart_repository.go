package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	UpdateTotal(ctx context.Context, cartID int64, totalCents int64) error
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一書籍は1行。数量0は削除扱いにするのでここには来ない。
	Upsert(ctx context.Context, item model.CartItem) error
	DeleteByCartAndBook(ctx context.Context, cartID int64, bookID int64) error
	// 注文に入った書籍をカートから間引く
	DeleteByCartAndBooks(ctx context.Context, cartID int64, bookIDs []int64) error
}
