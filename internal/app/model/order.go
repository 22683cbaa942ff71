package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	// Status labels are part of the wire format and must round-trip
	// unchanged, case included.
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"

	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// OrderStatusValues lists every legal status label
var OrderStatusValues = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is one of the enumerated labels
func IsValidOrderStatus(s OrderStatus) bool {
	for _, v := range OrderStatusValues {
		if s == v {
			return true
		}
	}
	return false
}

// Order is a frozen snapshot of a cart at checkout time. TotalAmount never
// changes after creation, whatever later happens to the catalog.
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	OrderNumber     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"order_number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	CartID          *uint          `gorm:"index" json:"cart_id,omitempty"` // originating cart, audit only
	TotalAmount     float64        `gorm:"not null" json:"total_amount"`
	PaymentStatus   PaymentStatus  `gorm:"type:varchar(20);default:'Unpaid'" json:"payment_status"`
	PaymentMethod   string         `gorm:"type:varchar(50)" json:"payment_method"`
	Status          OrderStatus    `gorm:"type:varchar(20);default:'Pending'" json:"status"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	City            string         `gorm:"type:varchar(100)" json:"city"`
	Country         string         `gorm:"type:varchar(100)" json:"country"`
	ZipCode         string         `gorm:"type:varchar(20)" json:"zip_code"`
	PhoneNo         string         `gorm:"type:varchar(30)" json:"phone_no"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User  User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// CanCancel reports whether a user may still cancel the order. Once an
// order has shipped, been delivered, or is already cancelled, it is final.
func (o *Order) CanCancel() bool {
	switch o.Status {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

// OrderItem is a frozen line item. ProductID is nullable so deleting a
// product from the catalog never invalidates historical orders; the name
// and unit price copied at checkout stay authoritative.
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	ProductID   *uint          `gorm:"index" json:"product_id,omitempty"`
	ProductName string         `gorm:"not null" json:"product_name"`
	Price       float64        `gorm:"not null" json:"price"` // unit price at order time
	Quantity    int            `gorm:"not null" json:"quantity"`
	Reviewed    bool           `gorm:"default:false" json:"reviewed"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Order   Order    `gorm:"foreignKey:OrderID" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Total is the frozen line total
func (oi *OrderItem) Total() float64 {
	return oi.Price * float64(oi.Quantity)
}
