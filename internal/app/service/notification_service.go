package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/websocket"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notifier is the one-way outbound channel order transitions report to.
// The payment reconciler and order store call it at most once per applied
// transition; implementations must not be relied on for delivery guarantees
// (email/push delivery itself is an external concern).
type Notifier interface {
	NotifyOrderStatus(order *model.Order) error
}

type NotificationService interface {
	Notifier
	GetNotifications(userID uint, page, pageSize int) ([]model.Notification, int64, error)
	MarkAsRead(userID, notificationID uint) (*model.Notification, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
}

// NewNotificationService creates a notification service. The hub may be nil
// (e.g. in tests or worker processes); rows are still persisted.
func NewNotificationService(repo repository.NotificationRepository, hub *websocket.Hub) NotificationService {
	return &notificationService{
		repo: repo,
		hub:  hub,
	}
}

func (s *notificationService) NotifyOrderStatus(order *model.Order) error {
	orderID := order.ID
	notification := &model.Notification{
		UserID:  order.UserID,
		Type:    model.NotificationTypeOrderStatus,
		Title:   fmt.Sprintf("Order #%d %s", order.ID, order.Status),
		Content: orderStatusMessage(order),
		Link:    fmt.Sprintf("/orders/%d", order.ID),
		OrderID: &orderID,
	}

	if err := s.repo.Create(notification); err != nil {
		logger.Error("Failed to persist order notification", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		return err
	}

	if s.hub != nil {
		if payload, err := json.Marshal(notification); err == nil {
			s.hub.SendToUser(order.UserID, payload)
		}
	}

	logger.Info("Order notification sent", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return nil
}

func (s *notificationService) GetNotifications(userID uint, page, pageSize int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.FindByUserID(userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(userID, notificationID uint) (*model.Notification, error) {
	notification, err := s.repo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	if notification.UserID != userID {
		return nil, ErrNotificationNotFound
	}

	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}

	notification.IsRead = true
	return notification, nil
}

func orderStatusMessage(order *model.Order) string {
	switch order.Status {
	case model.OrderStatusPaid:
		return fmt.Sprintf("Payment received for order #%d. Total: %.2f", order.ID, order.Total)
	case model.OrderStatusShipped:
		return fmt.Sprintf("Order #%d is on its way", order.ID)
	case model.OrderStatusDelivered:
		return fmt.Sprintf("Order #%d has been delivered", order.ID)
	case model.OrderStatusCancelled:
		return fmt.Sprintf("Order #%d was cancelled", order.ID)
	default:
		return fmt.Sprintf("Order #%d status is now %s", order.ID, order.Status)
	}
}
