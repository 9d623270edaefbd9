package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeOrderStatus NotificationType = "order_status"
)

// Notification is one user-facing event record. The payment reconciler and
// order store write exactly one row per applied status transition.
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string           `gorm:"type:text;not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Link      string           `gorm:"type:text" json:"link"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	OrderID   *uint            `gorm:"index" json:"order_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
