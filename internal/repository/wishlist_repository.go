package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

type WishlistRepository interface {
	GetOrCreateByGuestID(ctx context.Context, guestID string) (model.Wishlist, error)
	FindByGuestID(ctx context.Context, guestID string) (model.Wishlist, error)
	ListItems(ctx context.Context, wishlistID int64) ([]model.WishlistItem, error)
	AddItem(ctx context.Context, item model.WishlistItem) error
	RemoveItem(ctx context.Context, wishlistID int64, bookID int64) error
}
