package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/velastore/velastore-backend/internal/app/service"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
	"github.com/velastore/velastore-backend/internal/middleware"
	"github.com/velastore/velastore-backend/internal/websocket"
	"github.com/velastore/velastore-backend/pkg/logger"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware on the rest of
	// the API; the websocket handshake is gated by the auth middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type NotificationController struct {
	notificationService service.NotificationService
	hub                 *websocket.Hub
}

func NewNotificationController(notificationService service.NotificationService, hub *websocket.Hub) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		hub:                 hub,
	}
}

// ListNotifications handles GET /api/v1/notifications
func (ctrl *NotificationController) ListNotifications(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	notifications, total, err := ctrl.notificationService.GetNotifications(userID, page, pageSize)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
	})
}

// MarkAsRead handles PUT /api/v1/notifications/:id/read
func (ctrl *NotificationController) MarkAsRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid notification ID")
		return
	}

	notification, err := ctrl.notificationService.MarkAsRead(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			apperrors.NotFound(c, apperrors.NotificationNotFound, "Notification not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// Subscribe handles GET /api/v1/notifications/ws and upgrades the connection
// to a websocket fed by the hub.
func (ctrl *NotificationController) Subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := &websocket.Client{
		Hub:    ctrl.hub,
		Conn:   &websocket.Conn{Conn: conn},
		UserID: userID,
		Send:   make(chan []byte, 64),
	}
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
