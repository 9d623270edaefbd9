package repository

import (
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
)

// CartRepository reads and writes the single active cart per user and its
// lines. Multi-step mutations are driven by the cart service inside one
// transaction; the repository methods accept the *gorm.DB they should run
// on so they compose with those transactions.
type CartRepository interface {
	FindActiveByUserID(userID uint) (*model.Cart, error)
	FindActiveByUserIDWithItems(userID uint) (*model.Cart, error)
	Save(tx *gorm.DB, cart *model.Cart) error
	SaveItem(tx *gorm.DB, item *model.CartItem) error
	DeleteItem(tx *gorm.DB, itemID uint) error
	DeleteItemsByCartID(tx *gorm.DB, cartID uint) error
	FindItemsByCartID(tx *gorm.DB, cartID uint) ([]model.CartItem, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindActiveByUserID(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindActiveByUserIDWithItems(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		Preload("Items.Product").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Save(tx *gorm.DB, cart *model.Cart) error {
	if err := tx.Save(cart).Error; err != nil {
		logger.Error("Failed to save cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
			"user_id": cart.UserID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) SaveItem(tx *gorm.DB, item *model.CartItem) error {
	if err := tx.Save(item).Error; err != nil {
		logger.Error("Failed to save cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"cart_id":      item.CartID,
			"product_id":   item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(tx *gorm.DB, itemID uint) error {
	if err := tx.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindItemsByCartID(tx *gorm.DB, cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := tx.Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		logger.Error("Failed to find cart items in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return items, nil
}
