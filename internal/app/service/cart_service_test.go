package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/db"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartService) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	cartRepo := repository.NewCartRepository(database)
	productRepo := repository.NewProductRepository(database)
	return database, NewCartService(database, cartRepo, productRepo)
}

func createTestUser(t *testing.T, database *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, database.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, database *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "test",
		Active:   true,
	}
	require.NoError(t, database.Create(product).Error)
	return product
}

func TestGetCart_CreatesEmptyCartOnFirstAccess(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "cart1@test.com")

	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, cart.UserID)
	assert.Equal(t, model.CartStatusActive, cart.Status)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	again, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID, "repeated reads must return the same cart")
}

func TestGetCart_RepairsDriftedTotal(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "drift@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	// corrupt the cached total behind the service's back
	require.NoError(t, database.Model(&model.Cart{}).
		Where("user_id = ?", user.ID).
		Update("total_amount", 999.99).Error)

	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 37.00, cart.TotalAmount)
}

func TestAddToCart_NewLineCapturesPrice(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "add@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	cart, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 18.50, cart.Items[0].Price)
	assert.Equal(t, 37.00, cart.TotalAmount)
}

func TestAddToCart_MergesQuantityAndKeepsCapturedPrice(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "merge@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	// price change after the first add must not affect the existing line
	require.NoError(t, database.Model(product).Update("price", 25.00).Error)

	cart, err := svc.AddToCart(user.ID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 18.50, cart.Items[0].Price)
	assert.Equal(t, 92.50, cart.TotalAmount)
}

func TestAddToCart_RejectsMergeBeyondStock(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "stock@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 5)

	_, err := svc.AddToCart(user.ID, product.ID, 3)
	require.NoError(t, err)

	_, err = svc.AddToCart(user.ID, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// the failed add must not have changed the cart
	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "missing@test.com")

	_, err := svc.AddToCart(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddToCart_InactiveProduct(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "inactive@test.com")
	product := createTestProduct(t, database, "Retired", 10.00, 5)
	require.NoError(t, database.Model(product).Update("active", false).Error)

	_, err := svc.AddToCart(user.ID, product.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestUpdateCartItem_SetsQuantity(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "update@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateCartItem(user.ID, product.ID, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 7, cart.Items[0].Quantity)
	assert.Equal(t, 129.50, cart.TotalAmount)
}

func TestUpdateCartItem_MissingLine(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "update-missing@test.com")
	inCart := createTestProduct(t, database, "Mug", 18.50, 10)
	notInCart := createTestProduct(t, database, "Lamp", 89.90, 10)

	_, err := svc.AddToCart(user.ID, inCart.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateCartItem(user.ID, notInCart.ID, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestUpdateCartItem_BeyondStock(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "update-stock@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 5)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateCartItem(user.ID, product.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestRemoveCartItem_RemovesLineAndRecomputesTotal(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "remove@test.com")
	mug := createTestProduct(t, database, "Mug", 18.50, 10)
	lamp := createTestProduct(t, database, "Lamp", 89.90, 10)

	_, err := svc.AddToCart(user.ID, mug.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, lamp.ID, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveCartItem(user.ID, lamp.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, mug.ID, cart.Items[0].ProductID)
	assert.Equal(t, 37.00, cart.TotalAmount)
}

func TestRemoveCartItem_MissingLineIsAnError(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "remove-missing@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	_, err = svc.RemoveCartItem(user.ID, 9999)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestRemoveCartItem_ThenReAddSucceeds(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "readd@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = svc.RemoveCartItem(user.ID, product.ID)
	require.NoError(t, err)

	cart, err := svc.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestClearCart_EmptiesAndIsIdempotent(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "clear@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.ClearCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	// clearing again, and clearing a fresh user's nonexistent cart, both succeed
	_, err = svc.ClearCart(user.ID)
	assert.NoError(t, err)

	other := createTestUser(t, database, "clear-fresh@test.com")
	_, err = svc.ClearCart(other.ID)
	assert.NoError(t, err)
}

func TestSyncCart_ReplacesClampsAndReprices(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "sync@test.com")
	mug := createTestProduct(t, database, "Mug", 18.50, 3)
	lamp := createTestProduct(t, database, "Lamp", 89.90, 10)
	retired := createTestProduct(t, database, "Retired", 5.00, 10)
	require.NoError(t, database.Model(retired).Update("active", false).Error)

	// existing line at an old price; sync must replace it at the current price
	_, err := svc.AddToCart(user.ID, lamp.ID, 1)
	require.NoError(t, err)
	require.NoError(t, database.Model(lamp).Update("price", 79.90).Error)

	cart, err := svc.SyncCart(user.ID, []SyncItem{
		{ProductID: mug.ID, Quantity: 5},     // clamped to stock 3
		{ProductID: lamp.ID, Quantity: 2},    // repriced to 79.90
		{ProductID: retired.ID, Quantity: 1}, // dropped, inactive
		{ProductID: 9999, Quantity: 1},       // dropped, unknown
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	byProduct := make(map[uint]model.CartItem)
	for _, item := range cart.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 3, byProduct[mug.ID].Quantity)
	assert.Equal(t, 18.50, byProduct[mug.ID].Price)
	assert.Equal(t, 2, byProduct[lamp.ID].Quantity)
	assert.Equal(t, 79.90, byProduct[lamp.ID].Price)
	assert.Equal(t, 215.30, cart.TotalAmount)
}

func TestSyncCart_EmptyListClearsCart(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "sync-empty@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 10)

	_, err := svc.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.SyncCart(user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestConcurrentAdds_NoLostUpdates(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "concurrent@test.com")

	const workers = 8
	products := make([]*model.Product, workers)
	for i := range products {
		products[i] = createTestProduct(t, database, fmt.Sprintf("Product %d", i), 10.00, 100)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(p *model.Product) {
			defer wg.Done()
			if _, err := svc.AddToCart(user.ID, p.ID, 1); err != nil {
				errs <- err
			}
		}(products[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add failed: %v", err)
	}

	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, workers)
	assert.Equal(t, float64(workers)*10.00, cart.TotalAmount)
}

func TestConcurrentAdds_SameProductMergesBothIncrements(t *testing.T) {
	database, svc := setupCartTest(t)
	user := createTestUser(t, database, "concurrent-merge@test.com")
	product := createTestProduct(t, database, "Mug", 18.50, 100)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddToCart(user.ID, product.ID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add failed: %v", err)
	}

	cart, err := svc.GetCart(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 37.00, cart.TotalAmount)
}
