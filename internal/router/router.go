package router

import (
	"github.com/gin-gonic/gin"
	"github.com/velastore/velastore-backend/config"
	"github.com/velastore/velastore-backend/internal/app/controller"
	"github.com/velastore/velastore-backend/internal/middleware"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Cart         *controller.CartController
	Order        *controller.OrderController
	Payment      *controller.PaymentController
	Notification *controller.NotificationController
}

// Setup mounts the API routes.
//
// The webhook and the processor redirect targets are unauthenticated: the
// webhook authenticates by signature, and the redirects arrive from the
// user's browser without our bearer token.
func Setup(cfg *config.Config, ctrls Controllers) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	auth := middleware.AuthMiddleware(cfg.JWT.Secret)

	// public
	v1.POST("/auth/register", ctrls.Auth.Register)
	v1.POST("/auth/login", ctrls.Auth.Login)
	v1.GET("/products", ctrls.Product.ListProducts)
	v1.GET("/products/:id", ctrls.Product.GetProduct)
	v1.POST("/products/details", ctrls.Product.GetProductDetails)
	v1.POST("/stripe/webhook", ctrls.Payment.Webhook)
	v1.GET("/stripe/success", ctrls.Payment.Success)
	v1.GET("/stripe/cancel", ctrls.Payment.Cancel)

	// authenticated
	user := v1.Group("")
	user.Use(auth)
	{
		user.POST("/auth/logout", ctrls.Auth.Logout)
		user.GET("/auth/me", ctrls.Auth.GetMe)
		user.PUT("/auth/me", ctrls.Auth.UpdateProfile)

		user.GET("/cart", ctrls.Cart.GetCart)
		user.PUT("/cart", ctrls.Cart.SyncCart)
		user.DELETE("/cart", ctrls.Cart.ClearCart)
		user.POST("/cart/items", ctrls.Cart.AddItem)
		user.PUT("/cart/items/:productId", ctrls.Cart.UpdateItem)
		user.DELETE("/cart/items/:productId", ctrls.Cart.RemoveItem)

		user.POST("/checkout", ctrls.Payment.Checkout)
		user.GET("/payments/confirm", ctrls.Payment.ConfirmPayment)

		user.GET("/orders", ctrls.Order.ListOrders)
		user.GET("/orders/:id", ctrls.Order.GetOrder)
		user.POST("/orders/:id/cancel", ctrls.Order.CancelOrder)

		user.GET("/notifications", ctrls.Notification.ListNotifications)
		user.PUT("/notifications/:id/read", ctrls.Notification.MarkAsRead)
		user.GET("/notifications/ws", ctrls.Notification.Subscribe)
	}

	// admin
	admin := v1.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.GET("/orders", ctrls.Order.ListAllOrders)
		admin.GET("/orders/export", ctrls.Order.ExportOrders)
		admin.PUT("/orders/:id/status", ctrls.Order.UpdateOrderStatus)
	}

	return r
}
