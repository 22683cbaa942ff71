package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"` // publisher
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Brand       string         `gorm:"type:varchar(100);index" json:"brand"`
	Category    string         `gorm:"type:varchar(100);index" json:"category"`
	Price       float64        `gorm:"not null" json:"price"`
	Stock       int            `gorm:"default:0" json:"stock"`
	Rating      float64        `gorm:"default:0" json:"rating"` // average of review ratings
	ImageURL    string         `json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User     `gorm:"foreignKey:UserID" json:"-"`
	Reviews []Review `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`
}

func (Product) TableName() string {
	return "products"
}
