package model

import "time"

type Book struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"type:varchar(255);not null" json:"name"`
	Author string `gorm:"type:varchar(255);not null" json:"author"`
	ISBN   string `gorm:"column:isbn;type:varchar(13);not null;uniqueIndex" json:"isbn"`

	// PriceCents が定価。DiscountRate（%）があれば DiscountedPriceCents を保存時に再計算する。
	PriceCents           int64 `gorm:"not null" json:"price"`
	DiscountRate         int64 `gorm:"not null;default:0" json:"discount_rate"`
	DiscountedPriceCents int64 `gorm:"not null;default:0" json:"discounted_price"`

	Rating          float64 `gorm:"not null;default:0" json:"rating"`
	PublicationDate string  `gorm:"type:varchar(20);not null" json:"publication_date"`
	Img             string  `gorm:"type:text" json:"img"`
	Description     string  `gorm:"type:text" json:"description"`

	CategoryID int64 `gorm:"not null;index" json:"category_id"`
	Stock      int64 `gorm:"not null;default:0" json:"stock"`

	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// EffectivePriceCents は販売価格（割引があれば割引後）。
func (b Book) EffectivePriceCents() int64 {
	if b.DiscountedPriceCents > 0 && b.DiscountedPriceCents < b.PriceCents {
		return b.DiscountedPriceCents
	}
	return b.PriceCents
}
