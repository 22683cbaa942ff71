package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"not null" json:"-"`
	Username         string         `gorm:"uniqueIndex;not null" json:"username"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	IsStaff          bool           `gorm:"default:false" json:"is_staff"`
	TwoFactorEnabled bool           `gorm:"default:false" json:"two_factor_enabled"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Cart     *Cart     `gorm:"foreignKey:UserID" json:"-"`
	Products []Product `gorm:"foreignKey:UserID" json:"-"`
	Orders   []Order   `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
