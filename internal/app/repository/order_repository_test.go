package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velastore/velastore-backend/internal/app/model"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, database *gorm.DB, userID uint, sessionID *string) *model.Order {
	t.Helper()

	order := &model.Order{
		Number:          uuid.New().String(),
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		StripeSessionID: sessionID,
		Total:           45.50,
	}
	require.NoError(t, database.Create(order).Error)
	return order
}

func strPtr(s string) *string { return &s }

func TestOrderRepository_FindBySessionID(t *testing.T) {
	database := setupRepoTest(t)
	repo := NewOrderRepository(database)
	user := seedUser(t, database, "repo-order@test.com")

	created := seedOrder(t, database, user.ID, strPtr("cs_repo_1"))
	seedOrder(t, database, user.ID, strPtr("cs_repo_2"))

	found, err := repo.FindBySessionID("cs_repo_1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindBySessionID("cs_unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_SessionIDIsUnique(t *testing.T) {
	database := setupRepoTest(t)
	user := seedUser(t, database, "repo-order-unique@test.com")

	seedOrder(t, database, user.ID, strPtr("cs_taken"))

	duplicate := &model.Order{
		Number:          uuid.New().String(),
		UserID:          user.ID,
		StripeSessionID: strPtr("cs_taken"),
		Total:           10,
	}
	assert.Error(t, database.Create(duplicate).Error)

	// session-less orders may coexist: NULL does not collide
	first := seedOrder(t, database, user.ID, nil)
	second := seedOrder(t, database, user.ID, nil)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestOrderRepository_FindStalePending(t *testing.T) {
	database := setupRepoTest(t)
	repo := NewOrderRepository(database)
	user := seedUser(t, database, "repo-stale@test.com")

	stale := seedOrder(t, database, user.ID, strPtr("cs_stale"))
	fresh := seedOrder(t, database, user.ID, strPtr("cs_fresh"))
	sessionless := seedOrder(t, database, user.ID, nil)
	paid := seedOrder(t, database, user.ID, strPtr("cs_paid"))
	require.NoError(t, database.Model(paid).Update("payment_status", model.PaymentStatusPaid).Error)

	old := time.Now().Add(-2 * time.Hour)
	for _, id := range []uint{stale.ID, sessionless.ID, paid.ID} {
		require.NoError(t, database.Model(&model.Order{}).
			Where("id = ?", id).
			Update("created_at", old).Error)
	}

	orders, err := repo.FindStalePending(time.Now().Add(-30 * time.Minute))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
	assert.NotEqual(t, fresh.ID, orders[0].ID)
}

func TestOrderRepository_CreateWithItemsAndPreload(t *testing.T) {
	database := setupRepoTest(t)
	repo := NewOrderRepository(database)
	user := seedUser(t, database, "repo-preload@test.com")
	product := seedProduct(t, database, "Mug", 18.50)

	order := &model.Order{
		Number: uuid.New().String(),
		UserID: user.ID,
		Total:  37.00,
	}
	require.NoError(t, repo.Create(database, order))
	require.NoError(t, database.Create(&model.OrderItem{
		OrderID:     order.ID,
		ProductID:   product.ID,
		Quantity:    2,
		Price:       18.50,
		ProductName: "Mug",
	}).Error)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Mug", found.Items[0].ProductName)
	assert.Equal(t, product.ID, found.Items[0].Product.ID)
}
