package model

import "time"

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookID    int64     `gorm:"not null;index" json:"book_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
