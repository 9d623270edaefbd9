package repository

import (
	"time"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindBySessionID(sessionID string) (*model.Order, error)
	FindAll() ([]model.Order, error)
	// FindStalePending returns pending-payment orders with a session id
	// older than the cutoff, the candidates for the polling reconciliation.
	FindStalePending(olderThan time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items").Preload("Items.Product")
}

func (r *orderRepository) Create(tx *gorm.DB, order *model.Order) error {
	if err := tx.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
			"total":   order.Total,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindBySessionID(sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.preloadOrder().Where("stripe_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder().Order("created_at DESC").Find(&orders).Error
	if err != nil {
		logger.Error("Failed to list orders in database", err)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindStalePending(olderThan time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Where("payment_status = ?", model.PaymentStatusPending).
		Where("stripe_session_id IS NOT NULL").
		Where("created_at < ?", olderThan).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find stale pending orders in database", err)
		return nil, err
	}
	return orders, nil
}
