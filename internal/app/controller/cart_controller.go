package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/velastore/velastore-backend/internal/app/service"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
	"github.com/velastore/velastore-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type addToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type syncCartRequest struct {
	Items []service.SyncItem `json:"items" binding:"required"`
}

// GetCart handles GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// AddItem handles POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid cart item data")
		return
	}

	cart, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// UpdateItem handles PUT /api/v1/cart/items/:productId
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid quantity")
		return
	}

	cart, err := ctrl.cartService.UpdateCartItem(userID, uint(productID), req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveItem handles DELETE /api/v1/cart/items/:productId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	cart, err := ctrl.cartService.RemoveCartItem(userID, uint(productID))
	if err != nil {
		ctrl.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// ClearCart handles DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.ClearCart(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// SyncCart handles PUT /api/v1/cart
func (ctrl *CartController) SyncCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req syncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid cart data")
		return
	}

	cart, err := ctrl.cartService.SyncCart(userID, req.Items)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

func (ctrl *CartController) respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrProductUnavailable):
		apperrors.BadRequest(c, apperrors.ProductNotFound, "Product is not available")
	case errors.Is(err, service.ErrInsufficientStock):
		apperrors.BadRequest(c, apperrors.StockInsufficient, "Requested quantity exceeds available stock")
	case errors.Is(err, service.ErrCartNotFound):
		apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Product is not in the cart")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
	default:
		respondStorageError(c, err, "cart")
	}
}
