package usecase_test

import (
	"context"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartTestEnv() (*TxManagerMock, *CartRepoMock, *CartItemRepoMock, *BookRepoMock) {
	tx := new(TxManagerMock)
	cartsRepo := new(CartRepoMock)
	cartItemsRepo := new(CartItemRepoMock)
	booksRepo := new(BookRepoMock)

	tx.Repos = &TxReposMock{
		carts:     cartsRepo,
		cartItems: cartItemsRepo,
		books:     booksRepo,
	}

	return tx, cartsRepo, cartItemsRepo, booksRepo
}

func TestCartUsecase_UpsertItem_SnapshotsDiscountedPrice(t *testing.T) {
	ctx := context.Background()

	tx, cartsRepo, cartItemsRepo, booksRepo := newCartTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	cartsRepo.On("GetOrCreateByUserID", mock.Anything, userID).Return(model.Cart{ID: 50, UserID: userID}, nil)

	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{
		ID: 1, Name: "セール本",
		PriceCents: 1000, DiscountRate: 20, DiscountedPriceCents: 800,
		Stock: 5,
	}, nil)

	var upserted model.CartItem
	cartItemsRepo.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		upserted = args.Get(1).(model.CartItem)
	}).Return(nil)

	cartItemsRepo.On("ListByCartID", mock.Anything, int64(50)).Return([]model.CartItem{
		{CartID: 50, BookID: 1, Quantity: 2, TotalCents: 1600},
	}, nil)
	cartsRepo.On("UpdateTotal", mock.Anything, int64(50), int64(1600)).Return(nil)

	uc := usecase.NewCartUsecase(tx)

	out, err := uc.UpsertItem(ctx, userID, usecase.UpsertCartItemInput{BookID: 1, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(1600), out.Total)

	// 定価と割引後の両方をスナップショット
	assert.Equal(t, int64(1000), upserted.UnitPriceSnapshot)
	assert.Equal(t, int64(800), upserted.DiscountPriceSnapshot)
	assert.Equal(t, int64(1600), upserted.TotalCents)
}

func TestCartUsecase_UpsertItem_QuantityZero_Removes(t *testing.T) {
	ctx := context.Background()

	tx, cartsRepo, cartItemsRepo, _ := newCartTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	cartsRepo.On("GetOrCreateByUserID", mock.Anything, userID).Return(model.Cart{ID: 50, UserID: userID}, nil)
	cartItemsRepo.On("DeleteByCartAndBook", mock.Anything, int64(50), int64(1)).Return(nil)
	cartItemsRepo.On("ListByCartID", mock.Anything, int64(50)).Return([]model.CartItem{}, nil)
	cartsRepo.On("UpdateTotal", mock.Anything, int64(50), int64(0)).Return(nil)

	uc := usecase.NewCartUsecase(tx)

	out, err := uc.UpsertItem(ctx, userID, usecase.UpsertCartItemInput{BookID: 1, Quantity: 0})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out.Items))

	cartItemsRepo.AssertExpectations(t)
}

func TestCartUsecase_UpsertItem_OverStock_Rejected(t *testing.T) {
	ctx := context.Background()

	tx, cartsRepo, cartItemsRepo, booksRepo := newCartTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	cartsRepo.On("GetOrCreateByUserID", mock.Anything, userID).Return(model.Cart{ID: 50}, nil)
	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{ID: 1, PriceCents: 1000, Stock: 1}, nil)

	uc := usecase.NewCartUsecase(tx)

	_, err := uc.UpsertItem(ctx, userID, usecase.UpsertCartItemInput{BookID: 1, Quantity: 3})
	assertErrContains(t, err, "out of stock")

	cartItemsRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCartUsecase_ClearCart_NoCart_IsNoop(t *testing.T) {
	ctx := context.Background()

	tx, cartsRepo, _, _ := newCartTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	cartsRepo.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(tx)

	assert.NoError(t, uc.ClearCart(ctx, 7))
	cartsRepo.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}
