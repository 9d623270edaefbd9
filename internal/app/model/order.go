package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known lifecycle states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusPaid,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is created once per checkout attempt and immutable afterwards except
// for its status fields. StripeSessionID is unique and, once set, never
// changes: it is the idempotency key every reconciliation path converges on.
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Number          string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"number"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	StripeSessionID *string        `gorm:"type:varchar(255);uniqueIndex" json:"stripe_session_id,omitempty"`
	PaymentIntent   string         `gorm:"type:varchar(255)" json:"payment_intent,omitempty"`
	Total           float64        `gorm:"type:decimal(10,2);not null" json:"total"`
	ShippingInfo    string         `gorm:"type:text" json:"shipping_info,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// Cancellable reports whether the order is still in a state the owner may
// cancel. Paid and later states are out of reach.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// OrderItem captures one cart line at checkout time. Product name and image
// are denormalized so historical orders render even if the catalog row is
// later changed or deleted.
type OrderItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	ProductName  string    `gorm:"not null" json:"product_name"`
	ProductImage string    `json:"product_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
