package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/db"
	"gorm.io/gorm"
)

func setupNotificationTest(t *testing.T) (*gorm.DB, NotificationService) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	repo := repository.NewNotificationRepository(database)
	return database, NewNotificationService(repo, nil)
}

func TestNotifyOrderStatus_PersistsRow(t *testing.T) {
	database, svc := setupNotificationTest(t)
	user := createTestUser(t, database, "notify@test.com")

	order := &model.Order{ID: 1, UserID: user.ID, Status: model.OrderStatusPaid, Total: 45.50}
	require.NoError(t, database.Create(order).Error)

	require.NoError(t, svc.NotifyOrderStatus(order))

	notifications, total, err := svc.GetNotifications(user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeOrderStatus, notifications[0].Type)
	assert.False(t, notifications[0].IsRead)
	require.NotNil(t, notifications[0].OrderID)
	assert.Equal(t, order.ID, *notifications[0].OrderID)
}

func TestMarkAsRead_OwnershipAndIdempotency(t *testing.T) {
	database, svc := setupNotificationTest(t)
	owner := createTestUser(t, database, "notify-owner@test.com")
	other := createTestUser(t, database, "notify-other@test.com")

	order := &model.Order{UserID: owner.ID, Status: model.OrderStatusPaid}
	require.NoError(t, database.Create(order).Error)
	require.NoError(t, svc.NotifyOrderStatus(order))

	notifications, _, err := svc.GetNotifications(owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	id := notifications[0].ID

	// a stranger cannot read someone else's notification
	_, err = svc.MarkAsRead(other.ID, id)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	read, err := svc.MarkAsRead(owner.ID, id)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	// marking twice is fine
	read, err = svc.MarkAsRead(owner.ID, id)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = svc.MarkAsRead(owner.ID, 9999)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}
