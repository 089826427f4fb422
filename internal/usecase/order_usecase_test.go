package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/payment"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す。
// fnがerrorを返したらロールバック扱い（そのままerrorを返す）になる点も本物と同じ。
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	books      repo.BookRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	purchases  repo.PurchasedBookRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository            { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository    { return r.orderItems }
func (r *TxReposMock) Books() repo.BookRepository              { return r.books }
func (r *TxReposMock) Carts() repo.CartRepository              { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository      { return r.cartItems }
func (r *TxReposMock) Purchases() repo.PurchasedBookRepository { return r.purchases }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByUserAndID(ctx context.Context, userID int64, orderID int64) (model.Order, error) {
	args := m.Called(ctx, userID, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindGuestByCode(ctx context.Context, code string) (model.Order, error) {
	args := m.Called(ctx, code)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusIfCurrent(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus, pay model.PaymentStatus) error {
	args := m.Called(ctx, orderID, from, to, pay)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdatePaymentStatus(ctx context.Context, orderID int64, pay model.PaymentStatus) error {
	args := m.Called(ctx, orderID, pay)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateShippingAddress(ctx context.Context, orderID int64, addr model.ShippingAddress) error {
	args := m.Called(ctx, orderID, addr)
	return args.Error(0)
}

func (m *OrderRepoMock) SoftDelete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type BookRepoMock struct{ mock.Mock }

func (m *BookRepoMock) List(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	panic("not used in OrderUsecase tests")
}

func (m *BookRepoMock) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Book)
	return b, args.Error(1)
}

func (m *BookRepoMock) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	panic("not used in OrderUsecase tests")
}

func (m *BookRepoMock) Create(ctx context.Context, b model.Book) (model.Book, error) {
	panic("not used in OrderUsecase tests")
}

func (m *BookRepoMock) Update(ctx context.Context, b model.Book) error {
	panic("not used in OrderUsecase tests")
}

func (m *BookRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in OrderUsecase tests")
}

func (m *BookRepoMock) DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error) {
	args := m.Called(ctx, bookID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *BookRepoMock) IncreaseStock(ctx context.Context, bookID int64, qty int64) error {
	args := m.Called(ctx, bookID, qty)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateTotal(ctx context.Context, cartID int64, totalCents int64) error {
	args := m.Called(ctx, cartID, totalCents)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) Upsert(ctx context.Context, item model.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByCartAndBook(ctx context.Context, cartID int64, bookID int64) error {
	args := m.Called(ctx, cartID, bookID)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByCartAndBooks(ctx context.Context, cartID int64, bookIDs []int64) error {
	args := m.Called(ctx, cartID, bookIDs)
	return args.Error(0)
}

type PurchasedRepoMock struct{ mock.Mock }

func (m *PurchasedRepoMock) CreateBulk(ctx context.Context, entries []model.PurchasedBook) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *PurchasedRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.PurchasedBook, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]model.PurchasedBook)
	return entries, args.Error(1)
}

// =====================
// Refund gateway mock
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Refund(ctx context.Context, transactionRef string) (payment.RefundResult, error) {
	args := m.Called(ctx, transactionRef)
	res, _ := args.Get(0).(payment.RefundResult)
	return res, args.Error(1)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func validAddress() usecase.ShippingAddressInput {
	return usecase.ShippingAddressInput{
		FullName: "山田太郎",
		Phone:    "090-0000-0000",
		Line1:    "1-2-3 Chiyoda",
		City:     "Tokyo",
		State:    "Tokyo",
		Country:  "JP",
	}
}

func newOrderTestEnv() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *BookRepoMock, *CartRepoMock, *CartItemRepoMock, *PurchasedRepoMock, *GatewayMock) {
	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)
	booksRepo := new(BookRepoMock)
	cartsRepo := new(CartRepoMock)
	cartItemsRepo := new(CartItemRepoMock)
	purchasedRepo := new(PurchasedRepoMock)
	gateway := new(GatewayMock)

	tx.Repos = &TxReposMock{
		orders:     ordersRepo,
		orderItems: itemsRepo,
		books:      booksRepo,
		carts:      cartsRepo,
		cartItems:  cartItemsRepo,
		purchases:  purchasedRepo,
	}

	return tx, ordersRepo, itemsRepo, booksRepo, cartsRepo, cartItemsRepo, purchasedRepo, gateway
}

// =====================
// PlaceOrder tests
// =====================

func TestOrderUsecase_PlaceOrder_Success_TotalsAndSnapshots(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, itemsRepo, booksRepo, cartsRepo, cartItemsRepo, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)

	// 1000セントの本を2冊、500セントの本を1冊。送料300 → 合計2800。
	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{
		ID: 1, Name: "Go言語の本", ISBN: "9781111111111", PriceCents: 1000, Stock: 10,
	}, nil)
	booksRepo.On("FindByID", mock.Anything, int64(2)).Return(model.Book{
		ID: 2, Name: "SQLの本", ISBN: "9782222222222", PriceCents: 500, Stock: 5,
	}, nil)
	booksRepo.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(2)).Return(true, nil)
	booksRepo.On("DecreaseStockIfEnough", mock.Anything, int64(2), int64(1)).Return(true, nil)

	var created model.Order
	ordersRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(model.Order)
	}).Return(int64(100), nil)

	itemsRepo.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)

	cartsRepo.On("FindByUserID", mock.Anything, userID).Return(model.Cart{ID: 50, UserID: userID}, nil)
	cartItemsRepo.On("DeleteByCartAndBooks", mock.Anything, int64(50), []int64{1, 2}).Return(nil)

	purchasedRepo.On("CreateBulk", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	out, err := uc.PlaceOrder(ctx, userID, usecase.PlaceOrderInput{
		Items: []usecase.OrderLineInput{
			{BookID: 1, Quantity: 2},
			{BookID: 2, Quantity: 1},
		},
		PaymentMethod:   "After receive",
		ShippingAddress: validAddress(),
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(2500), out.Subtotal)
	assert.Equal(t, int64(300), out.ShippingFee)
	assert.Equal(t, int64(2800), out.TotalAmount)
	assert.Equal(t, "Processing", out.Status)
	assert.Equal(t, "Unpaid", out.PaymentStatus)
	assert.True(t, strings.HasPrefix(out.Code, "BR-"))
	assert.False(t, out.IsGuest)

	// 保存された注文も同じ金額
	assert.Equal(t, int64(2500), created.SubtotalCents)
	assert.Equal(t, int64(2800), created.TotalCents)
	assert.Equal(t, model.OrderStatusProcessing, created.Status)

	// スナップショット
	assert.Equal(t, 2, len(out.Items))
	assert.Equal(t, "Go言語の本", out.Items[0].Name)
	assert.Equal(t, int64(2000), out.Items[0].Total)

	tx.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
	booksRepo.AssertExpectations(t)
	cartItemsRepo.AssertExpectations(t)
	purchasedRepo.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_DiscountedPriceSnapshot(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, itemsRepo, booksRepo, cartsRepo, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	// 割引後価格が注文に固定される
	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{
		ID: 1, Name: "セール本", ISBN: "9783333333333",
		PriceCents: 1000, DiscountRate: 20, DiscountedPriceCents: 800, Stock: 3,
	}, nil)
	booksRepo.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)

	ordersRepo.On("Create", mock.Anything, mock.Anything).Return(int64(101), nil)
	itemsRepo.On("CreateBulk", mock.Anything, int64(101), mock.Anything).Return(nil)
	cartsRepo.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{}, repo.ErrNotFound)
	purchasedRepo.On("CreateBulk", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	out, err := uc.PlaceOrder(ctx, 7, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 1}},
		PaymentMethod:   "After receive",
		ShippingAddress: validAddress(),
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(800), out.Items[0].Price)
	assert.Equal(t, int64(1100), out.TotalAmount)
}

func TestOrderUsecase_PlaceOrder_EmptyItems(t *testing.T) {
	tx, _, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		PaymentMethod:   "After receive",
		ShippingAddress: validAddress(),
	})
	assertErrContains(t, err, "items required")
}

func TestOrderUsecase_PlaceOrder_PayPalRequiresTransactionRef(t *testing.T) {
	tx, _, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 1}},
		PaymentMethod:   "PayPal",
		ShippingAddress: validAddress(),
	})
	assertErrContains(t, err, "transaction_ref")
}

func TestOrderUsecase_PlaceOrder_UnknownPaymentMethod(t *testing.T) {
	tx, _, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 1}},
		PaymentMethod:   "Bitcoin",
		ShippingAddress: validAddress(),
	})
	assertErrContains(t, err, "invalid payment_method")
}

func TestOrderUsecase_PlaceOrder_OutOfStock(t *testing.T) {
	ctx := context.Background()

	tx, _, _, booksRepo, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{ID: 1, PriceCents: 1000}, nil)
	booksRepo.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(99)).Return(false, nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.PlaceOrder(ctx, 7, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 99}},
		PaymentMethod:   "After receive",
		ShippingAddress: validAddress(),
	})
	assertErrContains(t, err, "out of stock")
}

func TestOrderUsecase_PlaceGuestOrder_Success_PayPalPaid(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, itemsRepo, booksRepo, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	booksRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Book{
		ID: 1, Name: "ゲスト本", ISBN: "9784444444444", PriceCents: 1200, Stock: 1,
	}, nil)
	booksRepo.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)

	var created model.Order
	ordersRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(model.Order)
	}).Return(int64(200), nil)
	itemsRepo.On("CreateBulk", mock.Anything, int64(200), mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	out, err := uc.PlaceGuestOrder(ctx, usecase.PlaceGuestOrderInput{
		PlaceOrderInput: usecase.PlaceOrderInput{
			Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 1}},
			PaymentMethod:   "PayPal",
			TransactionRef:  "CAPTURE-123",
			ShippingAddress: validAddress(),
		},
		GuestName:  "ゲスト花子",
		GuestEmail: "guest@example.com",
	})

	assert.NoError(t, err)
	assert.True(t, out.IsGuest)
	assert.Nil(t, out.UserID)
	assert.True(t, strings.HasPrefix(out.Code, "BG-"))
	// PayPalは注文時点でPaid
	assert.Equal(t, "Paid", out.PaymentStatus)
	assert.Equal(t, "CAPTURE-123", created.TransactionRef)

	// ゲストは購入履歴ミラーを書かない
	purchasedRepo.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceGuestOrder_RequiresContact(t *testing.T) {
	tx, _, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.PlaceGuestOrder(context.Background(), usecase.PlaceGuestOrderInput{
		PlaceOrderInput: usecase.PlaceOrderInput{
			Items:           []usecase.OrderLineInput{{BookID: 1, Quantity: 1}},
			PaymentMethod:   "After receive",
			ShippingAddress: validAddress(),
		},
	})
	assertErrContains(t, err, "guest_name required")
}

// =====================
// Cancel tests
// =====================

func TestOrderUsecase_CancelMyOrder_PaidPayPal_RefundsThenCancels(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, itemsRepo, booksRepo, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID:             orderID,
		UserID:         &userID,
		Status:         model.OrderStatusProcessing,
		PaymentMethod:  model.PaymentMethodPayPal,
		PaymentStatus:  model.PaymentStatusPaid,
		TransactionRef: "CAPTURE-123",
	}, nil)

	gateway.On("Refund", mock.Anything, "CAPTURE-123").Return(payment.RefundResult{RefundID: "R-1", Status: "COMPLETED"}, nil).Once()

	ordersRepo.On("UpdateStatusIfCurrent", mock.Anything, orderID,
		model.OrderStatusProcessing, model.OrderStatusCancelled, model.PaymentStatusRefunded).Return(nil)

	items := []model.OrderItem{
		{OrderID: orderID, BookID: 1, Quantity: 2},
		{OrderID: orderID, BookID: 2, Quantity: 1},
	}
	itemsRepo.On("ListByOrderID", mock.Anything, orderID).Return(items, nil)

	// 在庫戻し
	booksRepo.On("IncreaseStock", mock.Anything, int64(1), int64(2)).Return(nil)
	booksRepo.On("IncreaseStock", mock.Anything, int64(2), int64(1)).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	out, err := uc.CancelMyOrder(ctx, userID, orderID)
	assert.NoError(t, err)
	assert.Equal(t, "Cancelled", out.Status)
	assert.Equal(t, "Refunded", out.PaymentStatus)

	// 返金は一度きり
	gateway.AssertNumberOfCalls(t, "Refund", 1)
	ordersRepo.AssertExpectations(t)
	booksRepo.AssertExpectations(t)
}

func TestOrderUsecase_CancelMyOrder_RefundFailure_NothingPersisted(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID:             orderID,
		Status:         model.OrderStatusShipped,
		PaymentMethod:  model.PaymentMethodPayPal,
		PaymentStatus:  model.PaymentStatusPaid,
		TransactionRef: "CAPTURE-123",
	}, nil)

	gateway.On("Refund", mock.Anything, "CAPTURE-123").Return(payment.RefundResult{}, errors.New("gateway down"))

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.CancelMyOrder(ctx, userID, orderID)
	assertErrContains(t, err, "refund failed")

	// 返金に失敗したら注文は一切書き換えない
	ordersRepo.AssertNotCalled(t, "UpdateStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelMyOrder_UnpaidCash_NoRefundCall(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, itemsRepo, booksRepo, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID:            orderID,
		Status:        model.OrderStatusProcessing,
		PaymentMethod: model.PaymentMethodAfterReceive,
		PaymentStatus: model.PaymentStatusUnpaid,
	}, nil)

	// 未払いなので決済ステータスはそのまま
	ordersRepo.On("UpdateStatusIfCurrent", mock.Anything, orderID,
		model.OrderStatusProcessing, model.OrderStatusCancelled, model.PaymentStatusUnpaid).Return(nil)

	itemsRepo.On("ListByOrderID", mock.Anything, orderID).Return([]model.OrderItem{
		{OrderID: orderID, BookID: 3, Quantity: 1},
	}, nil)
	booksRepo.On("IncreaseStock", mock.Anything, int64(3), int64(1)).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	out, err := uc.CancelMyOrder(ctx, userID, orderID)
	assert.NoError(t, err)
	assert.Equal(t, "Unpaid", out.PaymentStatus)

	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelGuestOrder_AfterReturned_Rejected(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindGuestByCode", mock.Anything, "BG-01ABC").Return(model.Order{
		ID:      300,
		IsGuest: true,
		Status:  model.OrderStatusReturned,
	}, nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.CancelGuestOrder(ctx, "BG-01ABC")
	assertErrContains(t, err, "cannot cancel in current state")

	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelMyOrder_ConcurrentUpdate_Conflict(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID:            orderID,
		Status:        model.OrderStatusProcessing,
		PaymentMethod: model.PaymentMethodAfterReceive,
		PaymentStatus: model.PaymentStatusUnpaid,
	}, nil)

	// 先に別リクエストが状態を動かした
	ordersRepo.On("UpdateStatusIfCurrent", mock.Anything, orderID,
		model.OrderStatusProcessing, model.OrderStatusCancelled, model.PaymentStatusUnpaid).Return(repo.ErrConflict)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.CancelMyOrder(ctx, userID, orderID)
	assertErrContains(t, err, "concurrently")
}

// =====================
// Address / delete tests
// =====================

func TestOrderUsecase_UpdateShippingAddress_OnlyWhileProcessing(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID:     orderID,
		Status: model.OrderStatusShipped,
	}, nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.UpdateShippingAddress(ctx, userID, false, orderID, usecase.UpdateShippingAddressInput{
		Address: validAddress(),
	})
	assertErrContains(t, err, "processing")

	ordersRepo.AssertNotCalled(t, "UpdateShippingAddress", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_UpdateShippingAddress_MissingRequiredField(t *testing.T) {
	tx, _, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	addr := validAddress()
	addr.City = ""

	_, err := uc.UpdateShippingAddress(context.Background(), 7, false, 100, usecase.UpdateShippingAddressInput{
		Address: addr,
	})
	assertErrContains(t, err, "city required")
}

func TestOrderUsecase_DeleteMyOrder_SoftDeletes(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	userID := int64(7)
	orderID := int64(100)

	ordersRepo.On("FindByUserAndID", mock.Anything, userID, orderID).Return(model.Order{
		ID: orderID, Status: model.OrderStatusCancelled, CreatedAt: time.Now(),
	}, nil)
	ordersRepo.On("SoftDelete", mock.Anything, orderID).Return(nil)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	err := uc.DeleteMyOrder(ctx, userID, orderID)
	assert.NoError(t, err)
	ordersRepo.AssertExpectations(t)
}

func TestOrderUsecase_GetGuestOrderByCode_NotFound(t *testing.T) {
	ctx := context.Background()

	tx, ordersRepo, _, _, _, _, purchasedRepo, gateway := newOrderTestEnv()
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindGuestByCode", mock.Anything, "BG-UNKNOWN").Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx, gateway, purchasedRepo, 300)

	_, err := uc.GetGuestOrderByCode(ctx, "BG-UNKNOWN")
	assertErrContains(t, err, "not found")
}
