package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrForbidden           = errors.New("access denied")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
)

type OrderService interface {
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint, admin bool) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
	GetAllOrders() ([]model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	ExportOrders() ([]byte, error)
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	notifier  Notifier
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, notifier Notifier) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		notifier:  notifier,
	}
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(userID)
}

// GetOrderByID returns one order. Non-admin callers may only see their own.
func (s *orderService) GetOrderByID(userID, orderID uint, admin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !admin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// CancelOrder cancels an order on its owner's request. Only pending and
// processing orders qualify; anything paid or further along must go through
// support. The state check runs under a row lock so a cancel racing a
// payment signal cannot cancel an order the reconciler just marked paid.
func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.UserID != userID {
			return ErrForbidden
		}
		if !order.Cancellable() {
			return ErrOrderNotCancellable
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":         model.OrderStatusCancelled,
			"payment_status": model.PaymentStatusCancelled,
		}).Error; err != nil {
			return err
		}

		order.Status = model.OrderStatusCancelled
		order.PaymentStatus = model.PaymentStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled by owner", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderStatus(&order); err != nil {
			logger.Error("Failed to notify cancelled order", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}
	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetAllOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

// UpdateOrderStatus is the admin-side fulfilment transition (processing,
// shipped, delivered, ...). Payment state is owned by the reconciler and is
// not touched here.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	var order model.Order
	changed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status == status {
			return nil
		}

		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		return s.orderRepo.FindByID(order.ID)
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   status,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderStatus(&order); err != nil {
			logger.Error("Failed to notify order status change", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}
	return s.orderRepo.FindByID(order.ID)
}

// ExportOrders renders every order as an xlsx workbook for back-office use.
func (s *orderService) ExportOrders() ([]byte, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Number", "User ID", "Status", "Payment Status", "Total", "Items", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, order := range orders {
		itemCount := 0
		for _, item := range order.Items {
			itemCount += item.Quantity
		}
		values := []interface{}{
			order.ID,
			order.Number,
			order.UserID,
			string(order.Status),
			string(order.PaymentStatus),
			order.Total,
			itemCount,
			order.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	logger.Info("Orders exported", map[string]interface{}{
		"count": len(orders),
	})
	return buf.Bytes(), nil
}
