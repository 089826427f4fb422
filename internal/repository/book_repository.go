package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 条件付き更新が外れた（他のリクエストが先に更新した）
var ErrConflict = errors.New("conflict")

// 一覧検索
type BookListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}

// 書籍の永続化（保存・取得）だけを約束。
type BookRepository interface {
	List(ctx context.Context, q BookListQuery) ([]model.Book, int64, error)
	FindByID(ctx context.Context, id int64) (model.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)

	Create(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, b model.Book) error
	SoftDelete(ctx context.Context, id int64) error

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error)
	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, bookID int64, qty int64) error
}
