package service

import (
	"errors"
	"time"

	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
)

// SyncItem is one desired cart line in a sync request.
type SyncItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// CartService owns the single active cart per user. Every mutation runs in
// one transaction that locks the cart row, rewrites the affected lines and
// recomputes the cached total, so the total can never drift from the lines
// and two concurrent requests cannot lose each other's updates.
type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddToCart(userID, productID uint, quantity int) (*model.Cart, error)
	UpdateCartItem(userID, productID uint, quantity int) (*model.Cart, error)
	RemoveCartItem(userID, productID uint) (*model.Cart, error)
	ClearCart(userID uint) (*model.Cart, error)
	SyncCart(userID uint, items []SyncItem) (*model.Cart, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's active cart, creating an empty one if none
// exists. The cached total is verified against the lines on every read and
// silently repaired if it drifted.
func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindActiveByUserIDWithItems(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cart = &model.Cart{UserID: userID, Status: model.CartStatusActive}
			if err := s.cartRepo.Save(s.db, cart); err != nil {
				return nil, err
			}
			return cart, nil
		}
		return nil, err
	}

	expected := model.CartTotal(cart.Items)
	if cart.TotalAmount != expected {
		logger.Warn("Cart total drifted from items, repairing", map[string]interface{}{
			"cart_id":  cart.ID,
			"stored":   cart.TotalAmount,
			"expected": expected,
		})
		cart.TotalAmount = expected
		if err := s.cartRepo.Save(s.db, cart); err != nil {
			return nil, err
		}
	}

	return cart, nil
}

// AddToCart adds quantity of a product to the cart. If the product already
// has a line, the quantities merge and the line keeps its captured price.
// The merged quantity may not exceed current stock.
func (s *cartService) AddToCart(userID, productID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Active {
		return nil, ErrProductUnavailable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockedActiveCart(tx, userID, true)
		if err != nil {
			return err
		}

		var item model.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch {
		case err == nil:
			if item.Quantity+quantity > product.Stock {
				return ErrInsufficientStock
			}
			item.Quantity += quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > product.Stock {
				return ErrInsufficientStock
			}
			item = model.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				Price:     product.Price,
			}
		default:
			return err
		}

		if err := s.cartRepo.SaveItem(tx, &item); err != nil {
			return err
		}
		return s.recomputeTotal(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Product added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.GetCart(userID)
}

// UpdateCartItem sets the quantity of an existing line. The new quantity may
// not exceed current stock; the captured price is preserved.
func (s *cartService) UpdateCartItem(userID, productID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if quantity > product.Stock {
		return nil, ErrInsufficientStock
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockedActiveCart(tx, userID, false)
		if err != nil {
			return err
		}

		var item model.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		item.Quantity = quantity
		if err := s.cartRepo.SaveItem(tx, &item); err != nil {
			return err
		}
		return s.recomputeTotal(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// RemoveCartItem deletes one line from the cart. Removing a product that is
// not in the cart is an error, not a no-op.
func (s *cartService) RemoveCartItem(userID, productID uint) (*model.Cart, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockedActiveCart(tx, userID, false)
		if err != nil {
			return err
		}

		var item model.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		if err := s.cartRepo.DeleteItem(tx, item.ID); err != nil {
			return err
		}
		return s.recomputeTotal(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// ClearCart removes every line. Clearing an already empty or missing cart
// succeeds.
func (s *cartService) ClearCart(userID uint) (*model.Cart, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockedActiveCart(tx, userID, true)
		if err != nil {
			return err
		}

		if err := s.cartRepo.DeleteItemsByCartID(tx, cart.ID); err != nil {
			return err
		}
		cart.TotalAmount = 0
		return s.cartRepo.Save(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID)
}

// SyncCart replaces the whole cart with the client's desired lines, typically
// after a guest cart is merged on login. Unlike add and update, sync takes
// the catalog as authoritative: every line is repriced at the current price,
// quantities are clamped to stock, and lines for unknown or inactive
// products are dropped.
func (s *cartService) SyncCart(userID uint, items []SyncItem) (*model.Cart, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.lockedActiveCart(tx, userID, true)
		if err != nil {
			return err
		}

		if err := s.cartRepo.DeleteItemsByCartID(tx, cart.ID); err != nil {
			return err
		}

		seen := make(map[uint]bool, len(items))
		for _, desired := range items {
			product, ok := byID[desired.ProductID]
			if !ok || !product.Active || seen[desired.ProductID] {
				continue
			}
			seen[desired.ProductID] = true

			quantity := desired.Quantity
			if quantity > product.Stock {
				quantity = product.Stock
			}
			if quantity < 1 {
				continue
			}

			line := model.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				Price:     product.Price,
			}
			if err := s.cartRepo.SaveItem(tx, &line); err != nil {
				return err
			}
		}

		return s.recomputeTotal(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart synchronized", map[string]interface{}{
		"user_id":         userID,
		"requested_lines": len(items),
	})
	return s.GetCart(userID)
}

// lockedActiveCart loads the user's active cart under a row lock so
// concurrent mutations on the same cart serialize. With create set, a
// missing cart is created inside the same transaction.
func (s *cartService) lockedActiveCart(tx *gorm.DB, userID uint, create bool) (*model.Cart, error) {
	var cart model.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !create {
		return nil, ErrCartNotFound
	}

	cart = model.Cart{UserID: userID, Status: model.CartStatusActive}
	if err := s.cartRepo.Save(tx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// recomputeTotal rereads the cart lines inside the transaction and persists
// the recomputed total on the cart row.
func (s *cartService) recomputeTotal(tx *gorm.DB, cart *model.Cart) error {
	items, err := s.cartRepo.FindItemsByCartID(tx, cart.ID)
	if err != nil {
		return err
	}
	cart.TotalAmount = model.CartTotal(items)
	cart.UpdatedAt = time.Now()
	return s.cartRepo.Save(tx, cart)
}
