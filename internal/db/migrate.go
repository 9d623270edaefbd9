package db

import (
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Notification{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	// One active cart per user. AutoMigrate cannot express a partial index,
	// so it is applied directly on Postgres; the cart service additionally
	// serializes lazy creation inside its transactions.
	if DB.Dialector.Name() == "postgres" {
		if err := DB.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_active_per_user
			 ON carts (user_id) WHERE status = 'active' AND deleted_at IS NULL`,
		).Error; err != nil {
			logger.Error("Failed to create active-cart unique index", err)
			return err
		}
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
