package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type BookUsecase struct {
	bookRepo     repo.BookRepository
	categoryRepo repo.CategoryRepository
}

// DI
func NewBookUsecase(bookRepo repo.BookRepository, categoryRepo repo.CategoryRepository) *BookUsecase {
	return &BookUsecase{
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
	}
}

// GET /booksの入力DTO
type ListBooksInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}

type BookListOutput struct {
	Items []model.Book `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *BookUsecase) ListBooks(ctx context.Context, in ListBooksInput) (BookListOutput, error) {
	if in.Page < 1 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.bookRepo.List(ctx, repo.BookListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Sort:       in.Sort,
	})
	if err != nil {
		return BookListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return BookListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *BookUsecase) GetBookDetail(ctx context.Context, bookID int64) (model.Book, error) {
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return b, nil
}

type AdminBookInput struct {
	Name            string
	Author          string
	Price           int64
	DiscountRate    int64
	Rating          float64
	PublicationDate string
	Img             string
	Description     string
	CategoryID      int64
	Stock           int64
}

func (u *BookUsecase) AdminCreateBook(ctx context.Context, in AdminBookInput) (model.Book, error) {
	if err := validateBookInput(in); err != nil {
		return model.Book{}, err
	}

	// カテゴリ存在チェック
	if _, err := u.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if err == repo.ErrNotFound {
			return model.Book{}, NewHTTPError(http.StatusNotFound, "category not found")
		}
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	isbn, err := u.generateUniqueISBN(ctx)
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := time.Now()
	b, err := u.bookRepo.Create(ctx, model.Book{
		Name:                 strings.TrimSpace(in.Name),
		Author:               strings.TrimSpace(in.Author),
		ISBN:                 isbn,
		PriceCents:           in.Price,
		DiscountRate:         in.DiscountRate,
		DiscountedPriceCents: discountedPrice(in.Price, in.DiscountRate),
		Rating:               in.Rating,
		PublicationDate:      in.PublicationDate,
		Img:                  in.Img,
		Description:          in.Description,
		CategoryID:           in.CategoryID,
		Stock:                in.Stock,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return b, nil
}

func (u *BookUsecase) AdminUpdateBook(ctx context.Context, bookID int64, in AdminBookInput) (model.Book, error) {
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if err := validateBookInput(in); err != nil {
		return model.Book{}, err
	}

	b, err := u.bookRepo.FindByID(ctx, bookID)
	if err == repo.ErrNotFound {
		return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	b.Name = strings.TrimSpace(in.Name)
	b.Author = strings.TrimSpace(in.Author)
	b.PriceCents = in.Price
	b.DiscountRate = in.DiscountRate
	b.DiscountedPriceCents = discountedPrice(in.Price, in.DiscountRate)
	b.Rating = in.Rating
	b.PublicationDate = in.PublicationDate
	b.Img = in.Img
	b.Description = in.Description
	b.CategoryID = in.CategoryID
	b.Stock = in.Stock

	if err := u.bookRepo.Update(ctx, b); err != nil {
		if err == repo.ErrNotFound {
			return model.Book{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Book{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return b, nil
}

func (u *BookUsecase) AdminDeleteBook(ctx context.Context, bookID int64) error {
	if bookID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	if err := u.bookRepo.SoftDelete(ctx, bookID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func validateBookInput(in AdminBookInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.Author) == "" {
		return NewHTTPError(http.StatusBadRequest, "author required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.DiscountRate < 0 || in.DiscountRate > 100 {
		return NewHTTPError(http.StatusBadRequest, "discount_rate must be 0-100")
	}
	if in.Rating < 0 || in.Rating > 5 {
		return NewHTTPError(http.StatusBadRequest, "rating must be 0-5")
	}
	if strings.TrimSpace(in.PublicationDate) == "" {
		return NewHTTPError(http.StatusBadRequest, "publication_date required")
	}
	if in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "category_id required")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

// 割引後価格（セント）。割引なしなら0。
func discountedPrice(price int64, rate int64) int64 {
	if rate <= 0 {
		return 0
	}
	return price - price*rate/100
}

// EAN-13のチェックディジット込みでISBNを生成。重複したら引き直す。
func (u *BookUsecase) generateUniqueISBN(ctx context.Context) (string, error) {
	for {
		isbn := generateISBN()
		exists, err := u.bookRepo.ExistsByISBN(ctx, isbn)
		if err != nil {
			return "", err
		}
		if !exists {
			return isbn, nil
		}
	}
}

func generateISBN() string {
	digits := make([]byte, 0, 13)
	digits = append(digits, '9', '7', '8')
	for i := 0; i < 9; i++ {
		digits = append(digits, byte('0'+rand.IntN(10)))
	}

	sum := 0
	for i, d := range digits {
		n := int(d - '0')
		if i%2 == 0 {
			sum += n
		} else {
			sum += 3 * n
		}
	}
	checksum := (10 - sum%10) % 10

	return string(digits) + string(byte('0'+checksum))
}
