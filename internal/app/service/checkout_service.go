package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/payment/stripe"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrPaymentSession = errors.New("failed to create payment session")
)

// PaymentGateway is the slice of the payment processor checkout and
// reconciliation depend on. *stripe.Client satisfies it; tests substitute a
// fake.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// CheckoutResult is what a successful checkout hands back to the client: the
// created order and the processor URL to redirect the user to.
type CheckoutResult struct {
	Order      *model.Order `json:"order"`
	SessionID  string       `json:"session_id"`
	PaymentURL string       `json:"payment_url"`
}

// CheckoutService turns the active cart into an order and a payment session.
//
// The conversion is deliberately split into two transactions around the
// processor call. The first persists the order with its line snapshot; the
// second records the session id and retires the cart. If the processor call
// between them fails, the order remains pending without a session and the
// cart remains active and untouched, so the user can simply retry.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uint) (*CheckoutResult, error)
}

type checkoutService struct {
	db        *gorm.DB
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	gateway   PaymentGateway
}

func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
) CheckoutService {
	return &checkoutService{
		db:        db,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		gateway:   gateway,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID uint) (*CheckoutResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
			Preload("Items.Product").
			First(&cart).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		for _, item := range cart.Items {
			if item.Quantity > item.Product.Stock {
				logger.Warn("Checkout rejected: cart line exceeds stock", map[string]interface{}{
					"user_id":    userID,
					"product_id": item.ProductID,
					"quantity":   item.Quantity,
					"stock":      item.Product.Stock,
				})
				return ErrInsufficientStock
			}
		}

		order = &model.Order{
			Number:        uuid.New().String(),
			UserID:        userID,
			Status:        model.OrderStatusPending,
			PaymentStatus: model.PaymentStatusPending,
			Total:         model.CartTotal(cart.Items),
			ShippingInfo:  shippingInfoJSON(user),
		}
		if err := s.orderRepo.Create(tx, order); err != nil {
			return err
		}

		for _, item := range cart.Items {
			line := model.OrderItem{
				OrderID:      order.ID,
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				Price:        item.Price,
				ProductName:  item.Product.Name,
				ProductImage: item.Product.ImageURL,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, buildSessionParams(order, user))
	if err != nil {
		// The pending order stays without a session and the cart stays
		// active; the sweep will never pick the order up and the user
		// can retry checkout from the same cart.
		logger.Error("Payment session creation failed", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  userID,
		})
		return nil, ErrPaymentSession
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		sessionID := session.ID
		if err := tx.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Update("stripe_session_id", sessionID).Error; err != nil {
			return err
		}
		order.StripeSessionID = &sessionID

		now := time.Now()
		return tx.Model(&model.Cart{}).
			Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
			Updates(map[string]interface{}{
				"status":       model.CartStatusCompleted,
				"completed_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"order_id":   order.ID,
		"user_id":    userID,
		"session_id": session.ID,
		"total":      order.Total,
	})

	return &CheckoutResult{
		Order:      order,
		SessionID:  session.ID,
		PaymentURL: session.URL,
	}, nil
}

func buildSessionParams(order *model.Order, user *model.User) stripe.CheckoutSessionParams {
	lineItems := make([]stripe.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, stripe.LineItem{
			Name:       item.ProductName,
			ImageURL:   item.ProductImage,
			UnitAmount: minorUnits(item.Price),
			Quantity:   item.Quantity,
		})
	}

	return stripe.CheckoutSessionParams{
		LineItems:     lineItems,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"order_id":     strconv.FormatUint(uint64(order.ID), 10),
			"order_number": order.Number,
		},
	}
}

// minorUnits converts a decimal price to the processor's integer minor
// units (e.g. 45.50 -> 4550).
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

func shippingInfoJSON(user *model.User) string {
	info := map[string]string{
		"name":        user.Name,
		"address":     user.Address,
		"city":        user.City,
		"postal_code": user.PostalCode,
		"country":     user.Country,
		"phone":       user.Phone,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return ""
	}
	return string(data)
}
