package model

import "time"

// カート明細。追加時点の価格を必ず保存する。
type CartItem struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID                int64     `gorm:"not null;index:idx_cart_book,unique" json:"cart_id"`
	BookID                int64     `gorm:"not null;index:idx_cart_book,unique" json:"book_id"`
	NameSnapshot          string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot     int64     `gorm:"not null" json:"original_price"`
	DiscountPriceSnapshot int64     `gorm:"not null" json:"discount_price"`
	DiscountRateSnapshot  int64     `gorm:"not null;default:0" json:"discount_rate"`
	Quantity              int64     `gorm:"not null" json:"quantity"`
	TotalCents            int64     `gorm:"not null" json:"total_price"`
	CreatedAt             time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
