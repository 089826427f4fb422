package repository

import (
	"context"

	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	books      repo.BookRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	purchases  repo.PurchasedBookRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *txReposGorm) Books() repo.BookRepository             { return r.books }
func (r *txReposGorm) Carts() repo.CartRepository             { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository     { return r.cartItems }
func (r *txReposGorm) Purchases() repo.PurchasedBookRepository { return r.purchases }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			books:      NewBookGormRepository(tx),
			carts:      NewCartGormRepository(tx),
			cartItems:  NewCartItemGormRepository(tx),
			purchases:  NewPurchasedBookGormRepository(tx),
		}
		return fn(r)
	})
}
