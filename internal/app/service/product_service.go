package service

import (
	"errors"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"gorm.io/gorm"
)

// ProductService is the read-only catalog surface. Catalog authoring is a
// back-office concern and happens outside this API.
type ProductService interface {
	GetProducts(category string) ([]model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	GetProductsByIDs(ids []uint) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) GetProducts(category string) ([]model.Product, error) {
	return s.productRepo.FindAll(category)
}

// GetProductsByIDs resolves a batch of product identifiers in one query.
// Unknown identifiers are silently dropped from the result.
func (s *productService) GetProductsByIDs(ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	return s.productRepo.FindByIDs(ids)
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}
