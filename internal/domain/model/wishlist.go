package model

import "time"

// ウィッシュリストはGuestIDで引く。未ログインでも使えるように
// ユーザーIDではなくミドルウェアが発行するIDをキーにする。
type Wishlist struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GuestID   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"guest_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type WishlistItem struct {
	ID                     int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WishlistID             int64     `gorm:"not null;index:idx_wishlist_book,unique" json:"wishlist_id"`
	BookID                 int64     `gorm:"not null;index:idx_wishlist_book,unique" json:"book_id"`
	NameSnapshot           string    `gorm:"type:varchar(255);not null" json:"name"`
	ImgSnapshot            string    `gorm:"type:text" json:"img"`
	PriceSnapshot          int64     `gorm:"not null" json:"price"`
	DiscountedPriceSnapshot int64    `gorm:"not null;default:0" json:"discounted_price"`
	CreatedAt               time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
