package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/service"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
	"github.com/velastore/velastore-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders handles GET /api/v1/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, uint(orderID), middleware.IsAdmin(c))
	if err != nil {
		ctrl.respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, uint(orderID))
	if err != nil {
		ctrl.respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListAllOrders handles GET /api/v1/admin/orders
func (ctrl *OrderController) ListAllOrders(c *gin.Context) {
	orders, err := ctrl.orderService.GetAllOrders()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus handles PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid status data")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(uint(orderID), model.OrderStatus(req.Status))
	if err != nil {
		ctrl.respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ExportOrders handles GET /api/v1/admin/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	data, err := ctrl.orderService.ExportOrders()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (ctrl *OrderController) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrForbidden):
		apperrors.Forbidden(c, "")
	case errors.Is(err, service.ErrOrderNotCancellable):
		apperrors.Conflict(c, apperrors.OrderInvalidState, "Order can no longer be cancelled")
	case errors.Is(err, service.ErrInvalidOrderStatus):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown order status")
	default:
		respondStorageError(c, err, "order")
	}
}
