package model

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleCustomer Role = "CUSTOMER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCustomer:
		return true
	default:
		return false
	}
}

// 管理画面に入れるのはADMINとMANAGER。
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(200)" json:"name"`
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'CUSTOMER'" json:"role"`

	Gender   string `gorm:"type:varchar(20)" json:"gender"`
	Birthday string `gorm:"type:varchar(20)" json:"birthday"`
	Address  string `gorm:"type:varchar(255)" json:"address"`
	City     string `gorm:"type:varchar(100)" json:"city"`
	State    string `gorm:"type:varchar(100)" json:"state"`
	Zipcode  string `gorm:"type:varchar(20)" json:"zipcode"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`

	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
