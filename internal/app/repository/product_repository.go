package repository

import (
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductRepository is the read-only catalog view the cart and checkout
// consume: price, stock, name and image by identifier.
type ProductRepository interface {
	FindByID(id uint) (*model.Product, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	FindAll(category string) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindAll(category string) ([]model.Product, error) {
	query := r.db.Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var products []model.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to list products in database", err, map[string]interface{}{
			"category": category,
		})
		return nil, err
	}
	return products, nil
}
