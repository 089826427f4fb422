package usecase

import (
	"context"
	"fmt"
	"net/http"

	"bookstore/internal/domain/model"
	"bookstore/internal/payment"
	repo "bookstore/internal/repository"
)

type AdminOrderUsecase struct {
	tx      repo.TransactionManager
	gateway payment.RefundGateway
}

func NewAdminOrderUsecase(tx repo.TransactionManager, gateway payment.RefundGateway) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, gateway: gateway}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 50
	}
	if in.Status != "" && !model.OrderStatus(in.Status).IsValid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}

	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:   in.Page,
			Limit:  in.Limit,
			Status: in.Status,
			UserID: in.UserID,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = AdminOrderListOutput{Orders: outs, Total: total, Page: in.Page, Limit: in.Limit}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) GetDetail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は管理者によるステータス遷移。
// 遷移表の検証、決済ステータスの派生、返金の実行をすべてここで行う。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	target := model.OrderStatus(status)
	if !target.IsValid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown status: %s", status))
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status == target {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("order is already %s", target))
		}
		if !o.Status.CanTransitionTo(target) {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot change status from %s to %s", o.Status, target))
		}

		newPay := model.DerivePaymentStatus(o.PaymentStatus, target, o.PaymentMethod)

		// キャンセル・返品で返金が発生するなら先にゲートウェイを呼ぶ。
		// 失敗したらここでロールバックし、ステータスは一切動かない。
		needsRefund := (target == model.OrderStatusCancelled || target == model.OrderStatusReturned) &&
			o.PaymentMethod == model.PaymentMethodPayPal &&
			o.PaymentStatus == model.PaymentStatusPaid &&
			o.TransactionRef != ""
		if needsRefund {
			if _, err := u.gateway.Refund(ctx, o.TransactionRef); err != nil {
				return NewHTTPError(http.StatusBadGateway, "refund failed")
			}
		}

		if err := r.Orders().UpdateStatusIfCurrent(ctx, o.ID, o.Status, target, newPay); err != nil {
			if err == repo.ErrConflict {
				return NewHTTPError(http.StatusConflict, "order was updated concurrently")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// キャンセル時は在庫を戻す（返品は検品があるので自動では戻さない)
		if target == model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range items {
				if err := r.Books().IncreaseStock(ctx, it.BookID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = target
		o.PaymentStatus = newPay
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdatePaymentStatus は手動の入金記録。許すのは Unpaid → Paid だけ。
// 返金は必ずキャンセル・返品の遷移経由で起きる。
func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	target := model.PaymentStatus(paymentStatus)
	if !target.IsValid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown payment status: %s", paymentStatus))
	}
	if target != model.PaymentStatusPaid {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "payment status can only be set to Paid manually")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.PaymentStatus != model.PaymentStatusUnpaid {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("payment status is already %s", o.PaymentStatus))
		}

		if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusPaid); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.PaymentStatus = model.PaymentStatusPaid
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *AdminOrderUsecase) SoftDelete(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().SoftDelete(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}
