package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user model.User) error
	SoftDelete(ctx context.Context, userID int64) error
}

// パスワードリセットトークンの発行と消費
type PasswordResetTokenRepository interface {
	Create(ctx context.Context, t model.PasswordResetToken) error
	FindValidByToken(ctx context.Context, token string, now time.Time) (model.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64, now time.Time) error
}
