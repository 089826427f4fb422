package model

import "time"

// 1ユーザーにつきカートは1つ。TotalCents は明細の合計（導出値）。
type Cart struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalCents int64     `gorm:"not null;default:0" json:"total"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
