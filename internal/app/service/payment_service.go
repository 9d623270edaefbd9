package service

import (
	"context"
	"errors"
	"time"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/payment/stripe"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// PaymentService reconciles order payment state with the processor. Webhook
// push, the client's confirm pull, the cancel redirect and the periodic sweep
// all funnel into the same locked check-then-set transition, so whichever
// signal arrives first wins and the rest become no-ops.
type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
	ConfirmPayment(ctx context.Context, userID uint, sessionID string) (*model.Order, error)
	CancelRedirect(ctx context.Context, sessionID string) error
	ReconcilePendingOrders(ctx context.Context, maxAge time.Duration) error
}

type paymentService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	gateway       PaymentGateway
	notifier      Notifier
	webhookSecret string
}

func NewPaymentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	notifier Notifier,
	webhookSecret string,
) PaymentService {
	return &paymentService{
		db:            db,
		orderRepo:     orderRepo,
		gateway:       gateway,
		notifier:      notifier,
		webhookSecret: webhookSecret,
	}
}

// HandleWebhook verifies and applies one processor event. Events for unknown
// types or sessions no order references are acknowledged without action so
// the processor stops retrying them; only signature and payload failures are
// surfaced as errors.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := stripe.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			logger.Warn("Webhook rejected: bad signature", map[string]interface{}{
				"payload_bytes": len(payload),
			})
			return ErrInvalidSignature
		}
		return ErrInvalidPayload
	}

	switch event.Kind {
	case stripe.EventCheckoutSessionCompleted:
		_, _, err := s.markPaid(event.Session.ID, event.Session.PaymentIntent)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Webhook session matches no order", map[string]interface{}{
				"event_id":   event.ID,
				"session_id": event.Session.ID,
			})
		}
		return nil

	case stripe.EventCheckoutSessionExpired:
		if err := s.markClosed(event.Session.ID, model.PaymentStatusFailed); err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return nil

	default:
		logger.Info("Ignoring unhandled webhook event", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		return nil
	}
}

// ConfirmPayment is the pull-side check a client performs after returning
// from the processor's success page. It asks the processor for the session's
// current state and applies the paid transition if it has not been applied
// yet, then returns the (possibly just updated) order.
func (s *paymentService) ConfirmPayment(ctx context.Context, userID uint, sessionID string) (*model.Order, error) {
	order, err := s.orderRepo.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		return order, nil
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to retrieve session from processor", err, map[string]interface{}{
			"session_id": sessionID,
			"order_id":   order.ID,
		})
		return nil, err
	}

	if session.Paid() {
		if _, _, err := s.markPaid(sessionID, session.PaymentIntent); err != nil {
			return nil, err
		}
	}

	return s.orderRepo.FindByID(order.ID)
}

// CancelRedirect handles the user landing on the cancel URL. An order that
// was already paid through another path is left alone; an unmatched session
// is logged and ignored.
func (s *paymentService) CancelRedirect(ctx context.Context, sessionID string) error {
	err := s.markClosed(sessionID, model.PaymentStatusCancelled)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cancel redirect for unknown session", map[string]interface{}{
				"session_id": sessionID,
			})
			return nil
		}
		return err
	}
	return nil
}

// ReconcilePendingOrders polls the processor for orders stuck in pending
// payment longer than maxAge. It is the safety net for webhooks that never
// arrived. Per-order failures are logged and skipped so one bad session does
// not starve the rest of the sweep.
func (s *paymentService) ReconcilePendingOrders(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	orders, err := s.orderRepo.FindStalePending(cutoff)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	logger.Info("Reconciling stale pending orders", map[string]interface{}{
		"count":  len(orders),
		"cutoff": cutoff,
	})

	for _, order := range orders {
		if order.StripeSessionID == nil {
			continue
		}
		sessionID := *order.StripeSessionID

		session, err := s.gateway.RetrieveSession(ctx, sessionID)
		if err != nil {
			logger.Error("Sweep failed to retrieve session", err, map[string]interface{}{
				"order_id":   order.ID,
				"session_id": sessionID,
			})
			continue
		}

		if !session.Paid() {
			continue
		}

		if _, _, err := s.markPaid(sessionID, session.PaymentIntent); err != nil {
			logger.Error("Sweep failed to mark order paid", err, map[string]interface{}{
				"order_id":   order.ID,
				"session_id": sessionID,
			})
		}
	}
	return nil
}

// markPaid applies the paid transition for the order owning the session.
// The order row is locked for the check-then-set, so concurrent signals for
// the same session serialize and exactly one of them applies the transition.
// The notification fires only for the applying caller.
func (s *paymentService) markPaid(sessionID, paymentIntent string) (*model.Order, bool, error) {
	var order model.Order
	applied := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_session_id = ?", sessionID).
			First(&order).Error
		if err != nil {
			return err
		}

		if order.PaymentStatus == model.PaymentStatusPaid {
			return nil
		}

		updates := map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"status":         model.OrderStatusPaid,
		}
		if paymentIntent != "" {
			updates["payment_intent"] = paymentIntent
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		order.PaymentStatus = model.PaymentStatusPaid
		order.Status = model.OrderStatusPaid
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if applied {
		logger.Info("Order marked paid", map[string]interface{}{
			"order_id":   order.ID,
			"session_id": sessionID,
		})
		if s.notifier != nil {
			if err := s.notifier.NotifyOrderStatus(&order); err != nil {
				logger.Error("Failed to notify paid order", err, map[string]interface{}{
					"order_id": order.ID,
				})
			}
		}
	}

	return &order, applied, nil
}

// markClosed records a terminal unpaid outcome (failed or cancelled) for the
// order owning the session. Paid is a one-way gate: once an order is paid,
// later expiry or cancel signals are no-ops. Only an explicit cancel closes
// the order itself; an expired session marks the payment failed but leaves
// the order pending for a later checkout retry.
func (s *paymentService) markClosed(sessionID string, outcome model.PaymentStatus) error {
	var order model.Order
	applied := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_session_id = ?", sessionID).
			First(&order).Error
		if err != nil {
			return err
		}

		if order.PaymentStatus != model.PaymentStatusPending {
			return nil
		}

		updates := map[string]interface{}{"payment_status": outcome}
		if outcome == model.PaymentStatusCancelled {
			updates["status"] = model.OrderStatusCancelled
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		order.PaymentStatus = outcome
		if outcome == model.PaymentStatusCancelled {
			order.Status = model.OrderStatusCancelled
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}

	if applied {
		logger.Info("Order closed unpaid", map[string]interface{}{
			"order_id":       order.ID,
			"session_id":     sessionID,
			"payment_status": outcome,
		})
		if s.notifier != nil {
			if err := s.notifier.NotifyOrderStatus(&order); err != nil {
				logger.Error("Failed to notify closed order", err, map[string]interface{}{
					"order_id": order.ID,
				})
			}
		}
	}
	return nil
}
