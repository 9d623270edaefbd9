package controller

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/app/service"
	"github.com/velastore/velastore-backend/internal/db"
	"github.com/velastore/velastore-backend/pkg/payment/stripe"
	"gorm.io/gorm"
)

const webhookTestSecret = "whsec_controller_test"

type stubGateway struct{}

func (stubGateway) CreateCheckoutSession(context.Context, stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_stub", URL: "https://checkout.test/cs_stub"}, nil
}

func (stubGateway) RetrieveSession(_ context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: sessionID, PaymentStatus: "unpaid"}, nil
}

func setupWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	orderRepo := repository.NewOrderRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	notificationService := service.NewNotificationService(notificationRepo, nil)
	paymentService := service.NewPaymentService(database, orderRepo, stubGateway{}, notificationService, webhookTestSecret)
	ctrl := NewPaymentController(nil, paymentService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/stripe/webhook", ctrl.Webhook)
	r.GET("/stripe/cancel", ctrl.Cancel)
	return r, database
}

func postWebhook(r *gin.Engine, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpoint_CompletedEvent(t *testing.T) {
	r, database := setupWebhookRouter(t)

	user := &model.User{Email: "hook@test.com", PasswordHash: "x", Name: "Hook"}
	require.NoError(t, database.Create(user).Error)

	sessionID := "cs_hook_1"
	order := &model.Order{
		Number:          uuid.New().String(),
		UserID:          user.ID,
		StripeSessionID: &sessionID,
		Total:           45.50,
	}
	require.NoError(t, database.Create(order).Error)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_hook",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "%s", "payment_status": "paid", "payment_intent": "pi_hook"}}
	}`, sessionID))
	header := stripe.SignPayload(payload, webhookTestSecret, time.Now())

	w := postWebhook(r, payload, header)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated model.Order
	require.NoError(t, database.First(&updated, order.ID).Error)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)

	// one notification row was written for the paid transition
	var count int64
	require.NoError(t, database.Model(&model.Notification{}).
		Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookEndpoint_BadSignature(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	payload := []byte(`{"id": "evt_bad", "type": "checkout.session.completed", "data": {"object": {"id": "cs_x"}}}`)
	header := stripe.SignPayload(payload, "whsec_wrong", time.Now())

	w := postWebhook(r, payload, header)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookEndpoint_MissingHeader(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	payload := []byte(`{"id": "evt_x", "type": "checkout.session.completed", "data": {"object": {"id": "cs_x"}}}`)
	w := postWebhook(r, payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpoint_UnknownSessionStillSucceeds(t *testing.T) {
	r, _ := setupWebhookRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stripe/cancel?session_id=cs_nobody", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
