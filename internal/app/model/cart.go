package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"    // the single mutable cart per user
	CartStatusCompleted CartStatus = "completed" // retired by a successful checkout
)

// Cart is the one mutable cart a user owns. At most one row per user may be
// active at any time; checkout flips it to completed atomically with
// recording the payment session, never deleting it.
type Cart struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;index:idx_carts_user_status" json:"user_id"`
	Status      CartStatus     `gorm:"type:varchar(20);not null;default:'active';index:idx_carts_user_status" json:"status"`
	TotalAmount float64        `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User  User       `gorm:"foreignKey:UserID" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one product line in a cart. Price is captured from the catalog
// when the line is created (add) or refreshed (sync), not live-joined, so the
// price the user saw is the price checkout charges.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Cart lines are hard-deleted: a soft-deleted row would keep the
	// (cart_id, product_id) unique index occupied after removal.
	Cart    Cart    `gorm:"foreignKey:CartID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartTotal recomputes a cart total from its items. Every mutating
// transaction and the self-healing read go through this one function so the
// cached total cannot drift between call sites.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return math.Round(total*100) / 100
}
