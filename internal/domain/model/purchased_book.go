package model

import "time"

// 登録ユーザーの購入履歴ミラー。注文作成時にベストエフォートで書く。
// 注文自体の不変条件には含まれない。
type PurchasedBook struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	BookID       int64     `gorm:"not null;index" json:"book_id"`
	NameSnapshot string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity     int64     `gorm:"not null" json:"quantity"`
	OrderCode    string    `gorm:"type:varchar(40);not null" json:"order_code"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
