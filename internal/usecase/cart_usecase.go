package usecase

import (
	"context"
	"errors"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemOutput struct {
	BookID        int64  `json:"book_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discount_price"`
	DiscountRate  int64  `json:"discount_rate"`
	Quantity      int64  `json:"quantity"`
	Total         int64  `json:"total"`
}

type CartOutput struct {
	ID    int64            `json:"id"`
	Total int64            `json:"total"`
	Items []CartItemOutput `json:"items"`
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CartOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toCartOutput(cart, items)
		return nil
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

type UpsertCartItemInput struct {
	BookID   int64 `json:"book_id"`
	Quantity int64 `json:"quantity"`
}

// UpsertItem は追加と数量変更を兼ねる。数量0は削除。
func (u *CartUsecase) UpsertItem(ctx context.Context, userID int64, in UpsertCartItemInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.BookID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	if in.Quantity < 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var out CartOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if in.Quantity == 0 {
			if err := r.CartItems().DeleteByCartAndBook(ctx, cart.ID, in.BookID); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else {
			b, err := r.Books().FindByID(ctx, in.BookID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "book not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if b.Stock < in.Quantity {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			// 価格は追加時点のスナップショット
			price := b.EffectivePriceCents()
			if err := r.CartItems().Upsert(ctx, model.CartItem{
				CartID:                cart.ID,
				BookID:                b.ID,
				NameSnapshot:          b.Name,
				UnitPriceSnapshot:     b.PriceCents,
				DiscountPriceSnapshot: price,
				DiscountRateSnapshot:  b.DiscountRate,
				Quantity:              in.Quantity,
				TotalCents:            price * in.Quantity,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out, err = u.recalcAndLoad(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, bookID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}

	var out CartOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().DeleteByCartAndBook(ctx, cart.ID, bookID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not in cart")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = u.recalcAndLoad(ctx, r, cart)
		return err
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return nil // そもそも空
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return r.Carts().UpdateTotal(ctx, cart.ID, 0)
	})
}

// 明細から合計を再計算して保存し、最新のカートを返す
func (u *CartUsecase) recalcAndLoad(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartOutput, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var total int64 = 0
	for _, it := range items {
		total += it.TotalCents
	}
	if err := r.Carts().UpdateTotal(ctx, cart.ID, total); err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart.TotalCents = total
	return toCartOutput(cart, items), nil
}

func toCartOutput(cart model.Cart, items []model.CartItem) CartOutput {
	outItems := make([]CartItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, CartItemOutput{
			BookID:        it.BookID,
			Name:          it.NameSnapshot,
			Price:         it.UnitPriceSnapshot,
			DiscountPrice: it.DiscountPriceSnapshot,
			DiscountRate:  it.DiscountRateSnapshot,
			Quantity:      it.Quantity,
			Total:         it.TotalCents,
		})
	}
	return CartOutput{ID: cart.ID, Total: cart.TotalCents, Items: outItems}
}
