package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/payment"
	repo "bookstore/internal/repository"

	"github.com/oklog/ulid/v2"
)

// 注文コードのプレフィックス。ゲスト注文と会員注文をコードだけで見分けられる。
const (
	orderCodePrefixRegistered = "BR-"
	orderCodePrefixGuest      = "BG-"
)

type OrderUsecase struct {
	tx            repo.TransactionManager
	gateway       payment.RefundGateway
	purchasedRepo repo.PurchasedBookRepository
	shippingFee   int64
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	gateway payment.RefundGateway,
	purchasedRepo repo.PurchasedBookRepository,
	shippingFeeCents int64,
) *OrderUsecase {
	return &OrderUsecase{
		tx:            tx,
		gateway:       gateway,
		purchasedRepo: purchasedRepo,
		shippingFee:   shippingFeeCents,
	}
}

type OrderLineInput struct {
	BookID   int64 `json:"book_id"`
	Quantity int64 `json:"quantity"`
}

type ShippingAddressInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zipcode  string `json:"zipcode"`
	Country  string `json:"country"`
}

type PlaceOrderInput struct {
	Items           []OrderLineInput
	PaymentMethod   string
	TransactionRef  string
	ShippingAddress ShippingAddressInput
}

type PlaceGuestOrderInput struct {
	PlaceOrderInput
	GuestName  string
	GuestEmail string
	GuestPhone string
}

type OrderItemOutput struct {
	BookID   int64  `json:"book_id"`
	Name     string `json:"name"`
	ISBN     string `json:"isbn"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Total    int64  `json:"total"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	Code            string                `json:"code"`
	UserID          *int64                `json:"user_id,omitempty"`
	IsGuest         bool                  `json:"is_guest"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
	PaymentStatus   string                `json:"payment_status"`
	Subtotal        int64                 `json:"subtotal"`
	ShippingFee     int64                 `json:"shipping_fee"`
	TotalAmount     int64                 `json:"total_amount"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

// PlaceOrder は会員のチェックアウト。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validatePlaceOrderInput(in); err != nil {
		return OrderOutput{}, err
	}

	order := model.Order{
		Code:    newOrderCode(false),
		UserID:  &userID,
		IsGuest: false,
	}

	out, err := u.createOrder(ctx, order, in, &userID)
	if err != nil {
		return OrderOutput{}, err
	}

	// 購入履歴ミラーはベストエフォート。失敗しても注文は成立している。
	u.mirrorPurchaseHistory(ctx, userID, out)

	return out, nil
}

// PlaceGuestOrder はゲストのチェックアウト。連絡先必須、認証なし。
func (u *OrderUsecase) PlaceGuestOrder(ctx context.Context, in PlaceGuestOrderInput) (OrderOutput, error) {
	if err := validatePlaceOrderInput(in.PlaceOrderInput); err != nil {
		return OrderOutput{}, err
	}
	if strings.TrimSpace(in.GuestName) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "guest_name required")
	}
	if strings.TrimSpace(in.GuestEmail) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "guest_email required")
	}

	order := model.Order{
		Code:       newOrderCode(true),
		IsGuest:    true,
		GuestName:  strings.TrimSpace(in.GuestName),
		GuestEmail: strings.TrimSpace(in.GuestEmail),
		GuestPhone: strings.TrimSpace(in.GuestPhone),
	}

	return u.createOrder(ctx, order, in.PlaceOrderInput, nil)
}

// createOrder は共通の注文作成。スナップショット・在庫減算・金額計算はここ。
func (u *OrderUsecase) createOrder(ctx context.Context, order model.Order, in PlaceOrderInput, cartUserID *int64) (OrderOutput, error) {
	method := model.PaymentMethod(in.PaymentMethod)

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var subtotal int64 = 0
		now := time.Now()

		for _, line := range in.Items {
			b, err := r.Books().FindByID(ctx, line.BookID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, fmt.Sprintf("book not found: %d", line.BookID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			ok, err := r.Books().DecreaseStockIfEnough(ctx, line.BookID, line.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			// 価格と名前は注文時点のスナップショット（割引があれば割引後）
			price := b.EffectivePriceCents()
			lineTotal := price * line.Quantity

			orderItems = append(orderItems, model.OrderItem{
				BookID:            b.ID,
				NameSnapshot:      b.Name,
				ISBNSnapshot:      b.ISBN,
				UnitPriceSnapshot: price,
				Quantity:          line.Quantity,
				TotalCents:        lineTotal,
				CreatedAt:         now,
			})

			subtotal += lineTotal
		}

		order.Status = model.OrderStatusProcessing
		order.PaymentMethod = method
		order.PaymentStatus = model.InitialPaymentStatus(method)
		order.TransactionRef = strings.TrimSpace(in.TransactionRef)
		order.SubtotalCents = subtotal
		order.ShippingFeeCents = u.shippingFee
		order.TotalCents = subtotal + u.shippingFee
		order.ShippingAddress = toModelAddress(in.ShippingAddress)
		order.CreatedAt = now
		order.UpdatedAt = now

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 注文に入った書籍をカートから間引く（会員のみ）
		if cartUserID != nil {
			cart, err := r.Carts().FindByUserID(ctx, *cartUserID)
			if err == nil {
				bookIDs := make([]int64, 0, len(orderItems))
				for _, it := range orderItems {
					bookIDs = append(bookIDs, it.BookID)
				}
				if err := r.CartItems().DeleteByCartAndBooks(ctx, cart.ID, bookIDs); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			} else if !errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// コミット後に呼ぶ。失敗は握りつぶす（注文の不変条件には含まれない）。
func (u *OrderUsecase) mirrorPurchaseHistory(ctx context.Context, userID int64, out OrderOutput) {
	entries := make([]model.PurchasedBook, 0, len(out.Items))
	now := time.Now()
	for _, it := range out.Items {
		entries = append(entries, model.PurchasedBook{
			UserID:       userID,
			BookID:       it.BookID,
			NameSnapshot: it.Name,
			Quantity:     it.Quantity,
			OrderCode:    out.Code,
			CreatedAt:    now,
		})
	}
	_ = u.purchasedRepo.CreateBulk(ctx, entries)
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByUserAndID(ctx, userID, orderID)
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

// GetGuestOrderByCode は注文コードだけで引く（認証なし）。
func (u *OrderUsecase) GetGuestOrderByCode(ctx context.Context, code string) (OrderOutput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "code required")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindGuestByCode(ctx, code)
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

// CancelMyOrder は会員自身のキャンセル。
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByUserAndID(ctx, userID, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		updated, err := u.cancelWithinTx(ctx, r, o)
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(updated, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelGuestOrder は注文コードでのキャンセル。ルールは会員と同一。
func (u *OrderUsecase) CancelGuestOrder(ctx context.Context, code string) (OrderOutput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "code required")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindGuestByCode(ctx, code)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		updated, err := u.cancelWithinTx(ctx, r, o)
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(updated, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// cancelWithinTx はキャンセルの本体。
// 返金が必要なときは先に外部ゲートウェイを呼び、成功したときだけ状態を書く。
// 返金失敗ならerrorを返してトランザクションごとロールバック。
func (u *OrderUsecase) cancelWithinTx(ctx context.Context, r repo.TxRepos, o model.Order) (model.Order, error) {
	if o.Status != model.OrderStatusProcessing && o.Status != model.OrderStatusShipped {
		return model.Order{}, NewHTTPError(http.StatusConflict, "cannot cancel in current state")
	}

	newPay := model.DerivePaymentStatus(o.PaymentStatus, model.OrderStatusCancelled, o.PaymentMethod)

	// PayPal決済済みでcapture IDがあれば返金を先に実行
	if o.PaymentMethod == model.PaymentMethodPayPal &&
		o.PaymentStatus == model.PaymentStatusPaid &&
		o.TransactionRef != "" {
		if _, err := u.gateway.Refund(ctx, o.TransactionRef); err != nil {
			return model.Order{}, NewHTTPError(http.StatusBadGateway, "refund failed")
		}
	}

	// CAS更新。先に別のキャンセルが通っていたらここで外れる。
	if err := r.Orders().UpdateStatusIfCurrent(ctx, o.ID, o.Status, model.OrderStatusCancelled, newPay); err != nil {
		if err == repo.ErrConflict {
			return model.Order{}, NewHTTPError(http.StatusConflict, "order was updated concurrently")
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 在庫戻し
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for _, it := range items {
		if err := r.Books().IncreaseStock(ctx, it.BookID, it.Quantity); err != nil {
			return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	o.Status = model.OrderStatusCancelled
	o.PaymentStatus = newPay
	return o, nil
}

type UpdateShippingAddressInput struct {
	Address ShippingAddressInput
}

// UpdateShippingAddress は Processing の間だけ許可。
// isAdmin=true なら所有者以外（管理者）でも変更できる。
func (u *OrderUsecase) UpdateShippingAddress(ctx context.Context, actorUserID int64, isAdmin bool, orderID int64, in UpdateShippingAddressInput) (OrderOutput, error) {
	if actorUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := validateShippingAddress(in.Address); err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var o model.Order
		var err error
		if isAdmin {
			o, err = r.Orders().FindByID(ctx, orderID)
		} else {
			o, err = r.Orders().FindByUserAndID(ctx, actorUserID, orderID)
		}
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status != model.OrderStatusProcessing {
			return NewHTTPError(http.StatusConflict, "address can only be changed while processing")
		}

		addr := toModelAddress(in.Address)
		if err := r.Orders().UpdateShippingAddress(ctx, o.ID, addr); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.ShippingAddress = addr
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// DeleteMyOrder は論理削除。キャンセルとは別物。
func (u *OrderUsecase) DeleteMyOrder(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByUserAndID(ctx, userID, orderID); err != nil {
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

// ListPurchaseHistory は購入履歴ミラーをそのまま返す。
func (u *OrderUsecase) ListPurchaseHistory(ctx context.Context, userID int64) ([]model.PurchasedBook, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	entries, err := u.purchasedRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return entries, nil
}

func validatePlaceOrderInput(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, line := range in.Items {
		if line.BookID <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid book_id")
		}
		if line.Quantity < 1 {
			return NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}

	method := model.PaymentMethod(in.PaymentMethod)
	if !method.IsValid() {
		return NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	// PayPalは決済確定後に注文が作られるのでcapture IDが必須
	if method == model.PaymentMethodPayPal && strings.TrimSpace(in.TransactionRef) == "" {
		return NewHTTPError(http.StatusBadRequest, "transaction_ref required for PayPal")
	}

	return validateShippingAddress(in.ShippingAddress)
}

func validateShippingAddress(a ShippingAddressInput) error {
	if strings.TrimSpace(a.FullName) == "" {
		return NewHTTPError(http.StatusBadRequest, "full_name required")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return NewHTTPError(http.StatusBadRequest, "phone required")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return NewHTTPError(http.StatusBadRequest, "line1 required")
	}
	if strings.TrimSpace(a.City) == "" {
		return NewHTTPError(http.StatusBadRequest, "city required")
	}
	if strings.TrimSpace(a.State) == "" {
		return NewHTTPError(http.StatusBadRequest, "state required")
	}
	if strings.TrimSpace(a.Country) == "" {
		return NewHTTPError(http.StatusBadRequest, "country required")
	}
	return nil
}

func toModelAddress(a ShippingAddressInput) model.ShippingAddress {
	return model.ShippingAddress{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Line1:    strings.TrimSpace(a.Line1),
		Line2:    strings.TrimSpace(a.Line2),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		Zipcode:  strings.TrimSpace(a.Zipcode),
		Country:  strings.TrimSpace(a.Country),
	}
}

func newOrderCode(isGuest bool) string {
	prefix := orderCodePrefixRegistered
	if isGuest {
		prefix = orderCodePrefixGuest
	}
	return prefix + ulid.Make().String()
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			BookID:   it.BookID,
			Name:     it.NameSnapshot,
			ISBN:     it.ISBNSnapshot,
			Price:    it.UnitPriceSnapshot,
			Quantity: it.Quantity,
			Total:    it.TotalCents,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
		IsGuest:         o.IsGuest,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        o.SubtotalCents,
		ShippingFee:     o.ShippingFeeCents,
		TotalAmount:     o.TotalCents,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
