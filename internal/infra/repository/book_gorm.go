package repository

import (
	"context"
	"errors"
	"strings"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type BookGormRepository struct {
	db *gorm.DB
}

func NewBookGormRepository(db *gorm.DB) *BookGormRepository {
	return &BookGormRepository{db: db}
}

func (r *BookGormRepository) List(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	dbq := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("is_deleted = false")

	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		dbq = dbq.Where("name ILIKE ? OR author ILIKE ?", like, like)
	}
	if q.CategoryID != nil {
		dbq = dbq.Where("category_id = ?", *q.CategoryID)
	}
	if q.MinPrice != nil {
		dbq = dbq.Where("price_cents >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		dbq = dbq.Where("price_cents <= ?", *q.MaxPrice)
	}

	switch q.Sort {
	case "price_asc":
		dbq = dbq.Order("price_cents asc")
	case "price_desc":
		dbq = dbq.Order("price_cents desc")
	default:
		dbq = dbq.Order("id desc")
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return []model.Book{}, 0, err
	}

	var items []model.Book
	offset := (q.Page - 1) * q.Limit
	if err := dbq.Limit(q.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Book{}, 0, err
	}

	return items, total, nil
}

func (r *BookGormRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	var b model.Book
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = false", id).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Book{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	return b, nil
}

func (r *BookGormRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("isbn = ?", isbn).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookGormRepository) Create(ctx context.Context, b model.Book) (model.Book, error) {
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		return model.Book{}, err
	}
	return b, nil
}

func (r *BookGormRepository) Update(ctx context.Context, b model.Book) error {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND is_deleted = false", b.ID).
		Updates(map[string]interface{}{
			"name":                   b.Name,
			"author":                 b.Author,
			"price_cents":            b.PriceCents,
			"discount_rate":          b.DiscountRate,
			"discounted_price_cents": b.DiscountedPriceCents,
			"rating":                 b.Rating,
			"publication_date":       b.PublicationDate,
			"img":                    b.Img,
			"description":            b.Description,
			"category_id":            b.CategoryID,
			"stock":                  b.Stock,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *BookGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND is_deleted = false", id).
		Update("is_deleted", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ減算（1文のUPDATEで原子的に）
func (r *BookGormRepository) DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND is_deleted = false AND stock >= ?", bookID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BookGormRepository) IncreaseStock(ctx context.Context, bookID int64, qty int64) error {
	return r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ?", bookID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}
