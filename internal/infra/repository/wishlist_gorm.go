package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) GetOrCreateByGuestID(ctx context.Context, guestID string) (model.Wishlist, error) {
	w, err := r.FindByGuestID(ctx, guestID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Wishlist{}, err
	}

	w = model.Wishlist{GuestID: guestID}
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		return model.Wishlist{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) FindByGuestID(ctx context.Context, guestID string) (model.Wishlist, error) {
	var w model.Wishlist
	err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Wishlist{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Wishlist{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) ListItems(ctx context.Context, wishlistID int64) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).
		Where("wishlist_id = ?", wishlistID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.WishlistItem{}, err
	}
	return items, nil
}

// 同じ本の二重登録は黙って無視する。
func (r *WishlistGormRepository) AddItem(ctx context.Context, item model.WishlistItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wishlist_id"}, {Name: "book_id"}},
		DoNothing: true,
	}).Create(&item).Error
}

func (r *WishlistGormRepository) RemoveItem(ctx context.Context, wishlistID int64, bookID int64) error {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND book_id = ?", wishlistID, bookID).
		Delete(&model.WishlistItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
