package model

import "time"

// 注文明細。名前・ISBN・単価は注文時点のスナップショット。
// 後からカタログ側の価格が変わっても既存注文の金額は変わらない。
type OrderItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64     `gorm:"not null;index" json:"order_id"`
	BookID            int64     `gorm:"not null;index" json:"book_id"`
	NameSnapshot      string    `gorm:"type:varchar(255);not null" json:"name"`
	ISBNSnapshot      string    `gorm:"column:isbn_snapshot;type:varchar(13);not null" json:"isbn"`
	UnitPriceSnapshot int64     `gorm:"not null" json:"price"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	TotalCents        int64     `gorm:"not null" json:"total"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
