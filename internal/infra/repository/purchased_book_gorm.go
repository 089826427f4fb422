package repository

import (
	"context"

	"bookstore/internal/domain/model"

	"gorm.io/gorm"
)

type PurchasedBookGormRepository struct {
	db *gorm.DB
}

func NewPurchasedBookGormRepository(db *gorm.DB) *PurchasedBookGormRepository {
	return &PurchasedBookGormRepository{db: db}
}

func (r *PurchasedBookGormRepository) CreateBulk(ctx context.Context, entries []model.PurchasedBook) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *PurchasedBookGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.PurchasedBook, error) {
	var items []model.PurchasedBook
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.PurchasedBook{}, err
	}
	return items, nil
}
