package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type WishlistUsecase struct {
	wishlists repo.WishlistRepository
	books     repo.BookRepository
}

func NewWishlistUsecase(wishlists repo.WishlistRepository, books repo.BookRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlists: wishlists, books: books}
}

type WishlistItemOutput struct {
	BookID          int64  `json:"book_id"`
	Name            string `json:"name"`
	Img             string `json:"img"`
	Price           int64  `json:"price"`
	DiscountedPrice int64  `json:"discounted_price"`
}

type WishlistOutput struct {
	GuestID string               `json:"guest_id"`
	Items   []WishlistItemOutput `json:"items"`
}

func (u *WishlistUsecase) GetWishlist(ctx context.Context, guestID string) (WishlistOutput, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "guest id required")
	}

	w, err := u.wishlists.FindByGuestID(ctx, guestID)
	if errors.Is(err, repo.ErrNotFound) {
		// まだ何も入れていない
		return WishlistOutput{GuestID: guestID, Items: []WishlistItemOutput{}}, nil
	}
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.wishlists.ListItems(ctx, w.ID)
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toWishlistOutput(guestID, items), nil
}

func (u *WishlistUsecase) AddItem(ctx context.Context, guestID string, bookID int64) (WishlistOutput, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "guest id required")
	}
	if bookID <= 0 {
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}

	b, err := u.books.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return WishlistOutput{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	w, err := u.wishlists.GetOrCreateByGuestID(ctx, guestID)
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.wishlists.AddItem(ctx, model.WishlistItem{
		WishlistID:              w.ID,
		BookID:                  b.ID,
		NameSnapshot:            b.Name,
		ImgSnapshot:             b.Img,
		PriceSnapshot:           b.PriceCents,
		DiscountedPriceSnapshot: b.DiscountedPriceCents,
	}); err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.wishlists.ListItems(ctx, w.ID)
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toWishlistOutput(guestID, items), nil
}

func (u *WishlistUsecase) RemoveItem(ctx context.Context, guestID string, bookID int64) (WishlistOutput, error) {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "guest id required")
	}
	if bookID <= 0 {
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}

	w, err := u.wishlists.FindByGuestID(ctx, guestID)
	if errors.Is(err, repo.ErrNotFound) {
		return WishlistOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.wishlists.RemoveItem(ctx, w.ID, bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return WishlistOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.wishlists.ListItems(ctx, w.ID)
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toWishlistOutput(guestID, items), nil
}

func toWishlistOutput(guestID string, items []model.WishlistItem) WishlistOutput {
	outItems := make([]WishlistItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, WishlistItemOutput{
			BookID:          it.BookID,
			Name:            it.NameSnapshot,
			Img:             it.ImgSnapshot,
			Price:           it.PriceSnapshot,
			DiscountedPrice: it.DiscountedPriceSnapshot,
		})
	}
	return WishlistOutput{GuestID: guestID, Items: outItems}
}
