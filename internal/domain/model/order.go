package model

import "time"

// 注文の所有者は登録ユーザーかゲストのどちらか片方だけ。
// IsGuest が true なら Guest* を使い、UserID は nil。
type Order struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"type:varchar(40);not null;uniqueIndex" json:"code"`

	UserID     *int64 `gorm:"index" json:"user_id,omitempty"`
	IsGuest    bool   `gorm:"not null;default:false;index" json:"is_guest"`
	GuestName  string `gorm:"type:varchar(200)" json:"guest_name,omitempty"`
	GuestEmail string `gorm:"type:varchar(200)" json:"guest_email,omitempty"`
	GuestPhone string `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`

	// PayPal決済確定時のcapture ID。返金時に必須。
	TransactionRef string `gorm:"type:varchar(100)" json:"-"`

	// 金額はすべてセント（整数）。Total = Subtotal + ShippingFee が不変条件。
	SubtotalCents    int64 `gorm:"not null" json:"subtotal"`
	ShippingFeeCents int64 `gorm:"not null" json:"shipping_fee"`
	TotalCents       int64 `gorm:"not null" json:"total_amount"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`

	// キャンセルとは別物。削除された注文は通常のクエリから除外される。
	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 配送先。FullName/Phone/Line1/City/State/Country は必須。
// Line2 と Zipcode は任意（版によって必須だった時期があるが任意に統一）。
type ShippingAddress struct {
	FullName string `gorm:"type:varchar(200)" json:"full_name"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Line1    string `gorm:"type:varchar(255)" json:"line1"`
	Line2    string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City     string `gorm:"type:varchar(100)" json:"city"`
	State    string `gorm:"type:varchar(100)" json:"state"`
	Zipcode  string `gorm:"type:varchar(20)" json:"zipcode,omitempty"`
	Country  string `gorm:"type:varchar(100)" json:"country"`
}
