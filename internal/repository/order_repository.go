package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

// 管理者用の注文一覧
type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	// どれも isDeleted=true の注文は対象外
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByUserAndID(ctx context.Context, userID int64, orderID int64) (model.Order, error)
	// ゲスト注文は注文コードだけで引く（認証なし）
	FindGuestByCode(ctx context.Context, code string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	Create(ctx context.Context, order model.Order) (int64, error)

	// 現在のステータスが from のときだけ status/payment_status を更新する（CAS）。
	// 競合して外れたら ErrConflict。
	UpdateStatusIfCurrent(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus, pay model.PaymentStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, pay model.PaymentStatus) error
	UpdateShippingAddress(ctx context.Context, orderID int64, addr model.ShippingAddress) error
	SoftDelete(ctx context.Context, orderID int64) error
}
