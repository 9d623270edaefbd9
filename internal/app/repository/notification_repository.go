package repository

import (
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByUserID(userID uint, limit, offset int) ([]model.Notification, int64, error)
	FindByID(id uint) (*model.Notification, error)
	MarkAsRead(id uint) error
	CountByOrderID(orderID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		logger.Error("Failed to create notification in database", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return err
	}
	return nil
}

func (r *notificationRepository) FindByUserID(userID uint, limit, offset int) ([]model.Notification, int64, error) {
	var total int64
	if err := r.db.Model(&model.Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		logger.Error("Failed to find notifications in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) FindByID(id uint) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) MarkAsRead(id uint) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) CountByOrderID(orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
