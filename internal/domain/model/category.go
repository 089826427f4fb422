package model

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(200);not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
