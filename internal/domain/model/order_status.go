package model

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusReceived   OrderStatus = "Received"
	OrderStatusReturned   OrderStatus = "Returned"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "Unpaid"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

type PaymentMethod string

const (
	// 代引き（受け取り時に支払い）
	PaymentMethodAfterReceive PaymentMethod = "After receive"
	PaymentMethodPayPal       PaymentMethod = "PayPal"
)

// 注文ステータスの遷移表。ここ以外で遷移可否を判定しない。
// Returned / Cancelled は終端。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusReceived, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusReceived, OrderStatusReturned, OrderStatusCancelled},
	OrderStatusReceived:   {OrderStatusReturned, OrderStatusCancelled},
	OrderStatusReturned:   {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	allowed, ok := orderTransitions[s]
	return ok && len(allowed) == 0
}

// CanTransitionTo は遷移表にある組み合わせだけtrueを返す。
// 同一ステータスへの遷移（to == s）は常にfalse。
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	allowed, ok := orderTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == to {
			return true
		}
	}
	return false
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodAfterReceive, PaymentMethodPayPal:
		return true
	default:
		return false
	}
}

// InitialPaymentStatus は注文作成時の支払いステータス。
// PayPalは決済確定済みで作成されるのでPaid、代引きはUnpaid。
func InitialPaymentStatus(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodPayPal {
		return PaymentStatusPaid
	}
	return PaymentStatusUnpaid
}

// DerivePaymentStatus は注文ステータス遷移に連動する支払いステータスを返す。
// すべての更新経路がここを通ること。個別のハンドラで再実装しない。
//   - Received × 代引き × Unpaid → Paid（受け取り時に集金）
//   - Cancelled / Returned × Paid → Refunded（同一更新内で必ず反映）
func DerivePaymentStatus(current PaymentStatus, to OrderStatus, m PaymentMethod) PaymentStatus {
	switch {
	case to == OrderStatusReceived && m == PaymentMethodAfterReceive && current == PaymentStatusUnpaid:
		return PaymentStatusPaid
	case (to == OrderStatusCancelled || to == OrderStatusReturned) && current == PaymentStatusPaid:
		return PaymentStatusRefunded
	default:
		return current
	}
}
