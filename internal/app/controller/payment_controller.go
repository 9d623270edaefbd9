package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velastore/velastore-backend/internal/app/service"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
	"github.com/velastore/velastore-backend/internal/middleware"
)

// PaymentController exposes checkout and every reconciliation entry point:
// the processor's webhook, the client's confirm pull and the redirect
// targets the processor sends the browser back to.
type PaymentController struct {
	checkoutService service.CheckoutService
	paymentService  service.PaymentService
}

func NewPaymentController(checkoutService service.CheckoutService, paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		checkoutService: checkoutService,
		paymentService:  paymentService,
	}
}

// Checkout handles POST /api/v1/checkout
func (ctrl *PaymentController) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	result, err := ctrl.checkoutService.Checkout(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Cart is empty")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.BadRequest(c, apperrors.StockInsufficient, "A cart item exceeds available stock")
		case errors.Is(err, service.ErrPaymentSession):
			apperrors.BadGateway(c, apperrors.PaymentSessionFailed,
				"Could not start a payment session, please try again")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Webhook handles POST /api/v1/stripe/webhook. The processor retries on
// non-2xx, so only signature and payload problems are rejected.
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.BadRequest(c, apperrors.PaymentInvalidPayload, "Could not read request body")
		return
	}

	middleware.GetLoggerFromContext(c).Debug("Webhook received", map[string]interface{}{
		"payload_bytes": len(payload),
	})

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := ctrl.paymentService.HandleWebhook(c.Request.Context(), payload, sigHeader); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			apperrors.BadRequest(c, apperrors.PaymentSignatureInvalid, "Invalid webhook signature")
		case errors.Is(err, service.ErrInvalidPayload):
			apperrors.BadRequest(c, apperrors.PaymentInvalidPayload, "Invalid webhook payload")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ConfirmPayment handles GET /api/v1/payments/confirm?session_id=...
func (ctrl *PaymentController) ConfirmPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "session_id is required")
		return
	}

	order, err := ctrl.paymentService.ConfirmPayment(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "No order matches this session")
		case errors.Is(err, service.ErrForbidden):
			apperrors.Forbidden(c, "")
		default:
			apperrors.BadGateway(c, apperrors.InternalExternalAPI,
				"Could not verify the payment, please try again")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Success handles GET /api/v1/stripe/success. The browser lands here after
// paying; the authoritative transition still comes from the webhook, the
// confirm pull or the sweep.
func (ctrl *PaymentController) Success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    "Payment completed, your order is being processed",
		"session_id": c.Query("session_id"),
	})
}

// Cancel handles GET /api/v1/stripe/cancel. The browser lands here when the
// user backs out of the processor's payment page.
func (ctrl *PaymentController) Cancel(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID != "" {
		if err := ctrl.paymentService.CancelRedirect(c.Request.Context(), sessionID); err != nil {
			apperrors.InternalError(c, "")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment cancelled"})
}
