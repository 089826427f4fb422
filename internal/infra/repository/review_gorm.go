package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Review, error) {
	var items []model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = false", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Review{}, err
	}
	return items, nil
}

func (r *ReviewGormRepository) ListByBookID(ctx context.Context, bookID int64) ([]model.Review, error) {
	var items []model.Review
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND is_deleted = false", bookID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Review{}, err
	}
	return items, nil
}

func (r *ReviewGormRepository) UpdateComment(ctx context.Context, reviewID int64, userID int64, comment string) (model.Review, error) {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ? AND user_id = ? AND is_deleted = false", reviewID, userID).
		Update("comment", comment)

	if res.Error != nil {
		return model.Review{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Review{}, repo.ErrNotFound
	}

	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("id = ?", reviewID).
		First(&rv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) SoftDelete(ctx context.Context, reviewID int64, userID int64) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ? AND user_id = ? AND is_deleted = false", reviewID, userID).
		Update("is_deleted", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
