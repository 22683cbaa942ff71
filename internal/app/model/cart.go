package model

import (
	"time"
)

// Cart is the single pre-checkout working set for a user, created lazily on
// first access. Items are emptied, not the cart itself, when an order is
// placed.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User  User       `gorm:"foreignKey:UserID" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// TotalPrice sums the live line totals. Items must be loaded with their
// products.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Total()
	}
	return total
}

// TotalItems sums the quantities across all line items
func (c *Cart) TotalItems() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// CartItem is one line item in a cart. At most one row exists per
// (cart, product) pair; re-adding a product updates the quantity.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;index:idx_cart_product,unique" json:"cart_id"`
	ProductID uint      `gorm:"not null;index:idx_cart_product,unique" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	DateAdded time.Time `gorm:"autoCreateTime" json:"date_added"`

	Cart    Cart    `gorm:"foreignKey:CartID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Total is the live line total, quantity times the product's current price.
// It is computed, never stored; prices freeze only at checkout.
func (ci *CartItem) Total() float64 {
	return ci.Product.Price * float64(ci.Quantity)
}
