package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusReceived,
	OrderStatusReturned,
	OrderStatusCancelled,
}

// 遷移表どおりの組み合わせだけ許可されること
func TestOrderStatus_CanTransitionTo_Table(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusReceived, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusReceived, OrderStatusReturned, OrderStatusCancelled},
		OrderStatusReceived:   {OrderStatusReturned, OrderStatusCancelled},
		OrderStatusReturned:   {},
		OrderStatusCancelled:  {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			got := from.CanTransitionTo(to)
			assert.Equal(t, want, got, "from=%s to=%s", from, to)
		}
	}
}

// 同一ステータスへの遷移は常に拒否
func TestOrderStatus_SelfTransitionRejected(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, s.CanTransitionTo(s), "self transition allowed for %s", s)
	}
}

// 終端ステータスからはどこへも行けない
func TestOrderStatus_TerminalStates(t *testing.T) {
	assert.True(t, OrderStatusReturned.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.False(t, OrderStatusReceived.IsTerminal())

	for _, to := range allStatuses {
		assert.False(t, OrderStatusReturned.CanTransitionTo(to))
		assert.False(t, OrderStatusCancelled.CanTransitionTo(to))
	}
}

func TestOrderStatus_UnknownStatus(t *testing.T) {
	unknown := OrderStatus("Delivered")
	assert.False(t, unknown.IsValid())
	assert.False(t, unknown.CanTransitionTo(OrderStatusShipped))
	assert.False(t, OrderStatusProcessing.CanTransitionTo(unknown))
}

func TestInitialPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentStatusPaid, InitialPaymentStatus(PaymentMethodPayPal))
	assert.Equal(t, PaymentStatusUnpaid, InitialPaymentStatus(PaymentMethodAfterReceive))
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		current PaymentStatus
		to      OrderStatus
		method  PaymentMethod
		want    PaymentStatus
	}{
		{"代引きの受け取りで自動的にPaid", PaymentStatusUnpaid, OrderStatusReceived, PaymentMethodAfterReceive, PaymentStatusPaid},
		{"PayPalはReceivedでも変化なし", PaymentStatusPaid, OrderStatusReceived, PaymentMethodPayPal, PaymentStatusPaid},
		{"キャンセルでPaidはRefunded", PaymentStatusPaid, OrderStatusCancelled, PaymentMethodPayPal, PaymentStatusRefunded},
		{"返品でPaidはRefunded", PaymentStatusPaid, OrderStatusReturned, PaymentMethodAfterReceive, PaymentStatusRefunded},
		{"キャンセルでもUnpaidはそのまま", PaymentStatusUnpaid, OrderStatusCancelled, PaymentMethodAfterReceive, PaymentStatusUnpaid},
		{"Refundedはそれ以上変化しない", PaymentStatusRefunded, OrderStatusReturned, PaymentMethodPayPal, PaymentStatusRefunded},
		{"Shippedでは変化なし", PaymentStatusUnpaid, OrderStatusShipped, PaymentMethodAfterReceive, PaymentStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePaymentStatus(tt.current, tt.to, tt.method)
			assert.Equal(t, tt.want, got)
		})
	}
}
