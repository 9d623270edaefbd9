package main

import (
	"github.com/lib/pq"
	"github.com/velastore/velastore-backend/config"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/db"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/util"
)

// Seeds a development database with an admin account and a small catalog.
func main() {
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	database := db.GetDB()

	adminHash, err := util.HashPassword("admin1234")
	if err != nil {
		logger.Fatal("Failed to hash admin password", err)
	}
	admin := model.User{
		Email:        "admin@velastore.dev",
		PasswordHash: adminHash,
		Name:         "Store Admin",
		Role:         model.RoleAdmin,
	}
	if err := database.Where("email = ?", admin.Email).FirstOrCreate(&admin).Error; err != nil {
		logger.Fatal("Failed to seed admin user", err)
	}

	products := []model.Product{
		{
			Name:        "Aurora Ceramic Mug",
			Description: "Hand-glazed stoneware mug, 350ml",
			Price:       18.50,
			Stock:       120,
			Category:    "kitchen",
			ImageURL:    "https://cdn.velastore.dev/products/aurora-mug.jpg",
			Images:      pq.StringArray{"https://cdn.velastore.dev/products/aurora-mug.jpg"},
			Active:      true,
		},
		{
			Name:        "Linen Throw Blanket",
			Description: "Stonewashed linen, 130x170cm",
			Price:       64.00,
			Stock:       45,
			Category:    "home",
			ImageURL:    "https://cdn.velastore.dev/products/linen-throw.jpg",
			Images:      pq.StringArray{"https://cdn.velastore.dev/products/linen-throw.jpg"},
			Active:      true,
		},
		{
			Name:        "Walnut Serving Board",
			Description: "Solid walnut, food-safe oil finish",
			Price:       42.75,
			Stock:       60,
			Category:    "kitchen",
			ImageURL:    "https://cdn.velastore.dev/products/walnut-board.jpg",
			Images:      pq.StringArray{"https://cdn.velastore.dev/products/walnut-board.jpg"},
			Active:      true,
		},
		{
			Name:        "Brass Desk Lamp",
			Description: "Adjustable arm, E14 socket",
			Price:       89.90,
			Stock:       25,
			Category:    "lighting",
			ImageURL:    "https://cdn.velastore.dev/products/brass-lamp.jpg",
			Images:      pq.StringArray{"https://cdn.velastore.dev/products/brass-lamp.jpg"},
			Active:      true,
		},
	}

	for _, p := range products {
		product := p
		if err := database.Where("name = ?", product.Name).FirstOrCreate(&product).Error; err != nil {
			logger.Fatal("Failed to seed product", err, map[string]interface{}{
				"name": product.Name,
			})
		}
	}

	logger.Info("Seed completed", map[string]interface{}{
		"products": len(products),
	})
}
