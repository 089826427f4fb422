package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserGormRepository) FindByID(ctx context.Context, userID int64) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = false", userID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, repo.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_deleted = false", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, repo.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_deleted = false")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.User{}, 0, err
	}

	var items []model.User
	offset := (page - 1) * limit
	if err := q.Order("id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.User{}, 0, err
	}

	return items, total, nil
}

func (r *UserGormRepository) Update(ctx context.Context, user model.User) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = false", user.ID).
		Updates(map[string]interface{}{
			"name":          user.Name,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"gender":        user.Gender,
			"birthday":      user.Birthday,
			"address":       user.Address,
			"city":          user.City,
			"state":         user.State,
			"zipcode":       user.Zipcode,
			"phone":         user.Phone,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *UserGormRepository) SoftDelete(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = false", userID).
		Update("is_deleted", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type PasswordResetTokenGormRepository struct {
	db *gorm.DB
}

func NewPasswordResetTokenGormRepository(db *gorm.DB) *PasswordResetTokenGormRepository {
	return &PasswordResetTokenGormRepository{db: db}
}

func (r *PasswordResetTokenGormRepository) Create(ctx context.Context, t model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(&t).Error
}

func (r *PasswordResetTokenGormRepository) FindValidByToken(ctx context.Context, token string, now time.Time) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PasswordResetToken{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	return t, nil
}

func (r *PasswordResetTokenGormRepository) MarkUsed(ctx context.Context, id int64, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
