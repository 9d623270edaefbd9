package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/velastore/velastore-backend/internal/app/service"
	"github.com/velastore/velastore-backend/pkg/logger"
)

// PaymentScheduler runs the periodic pending-payment sweep. It is the third
// reconciliation path, covering webhooks that never arrived and users who
// paid but never came back to the site.
type PaymentScheduler struct {
	cron           *cron.Cron
	paymentService service.PaymentService
	cronSpec       string
	pendingMaxAge  time.Duration
}

func NewPaymentScheduler(paymentService service.PaymentService, cronSpec string, pendingMaxAge time.Duration) *PaymentScheduler {
	return &PaymentScheduler{
		cron:           cron.New(),
		paymentService: paymentService,
		cronSpec:       cronSpec,
		pendingMaxAge:  pendingMaxAge,
	}
}

func (s *PaymentScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronSpec, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Payment reconciliation scheduler started", map[string]interface{}{
		"cron":            s.cronSpec,
		"pending_max_age": s.pendingMaxAge.String(),
	})
	return nil
}

func (s *PaymentScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Payment reconciliation scheduler stopped", nil)
}

func (s *PaymentScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.paymentService.ReconcilePendingOrders(ctx, s.pendingMaxAge); err != nil {
		logger.Error("Pending payment sweep failed", err, nil)
	}
}
