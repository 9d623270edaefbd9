package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is the catalog row the cart and checkout read price, stock, name
// and image data from. The core never writes to it except for stock checks;
// catalog management lives outside this service.
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int            `gorm:"default:0" json:"stock"`
	Category    string         `gorm:"type:varchar(50);index" json:"category"`
	ImageURL    string         `json:"image_url"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images,omitempty"`
	Active      bool           `gorm:"default:true" json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	CartItems  []CartItem  `gorm:"foreignKey:ProductID" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
