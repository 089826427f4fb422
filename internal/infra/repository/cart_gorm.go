package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	cart, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, err
	}

	cart = model.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var c model.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return c, nil
}

func (r *CartGormRepository) UpdateTotal(ctx context.Context, cartID int64, totalCents int64) error {
	return r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("total_cents", totalCents).Error
}

func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	return r.UpdateTotal(ctx, cartID, 0)
}

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// (cart_id, book_id) で1行。既存行は数量とスナップショットを上書き。
func (r *CartItemGormRepository) Upsert(ctx context.Context, item model.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name_snapshot",
			"unit_price_snapshot",
			"discount_price_snapshot",
			"discount_rate_snapshot",
			"quantity",
			"total_cents",
			"updated_at",
		}),
	}).Create(&item).Error
}

func (r *CartItemGormRepository) DeleteByCartAndBook(ctx context.Context, cartID int64, bookID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Delete(&model.CartItem{}).Error
}

func (r *CartItemGormRepository) DeleteByCartAndBooks(ctx context.Context, cartID int64, bookIDs []int64) error {
	if len(bookIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND book_id IN ?", cartID, bookIDs).
		Delete(&model.CartItem{}).Error
}
