package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velastore/velastore-backend/config"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/db"
	"github.com/velastore/velastore-backend/pkg/util"
)

func setupAuthTest(t *testing.T) AuthService {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	userRepo := repository.NewUserRepository(database)
	return NewAuthService(userRepo, config.JWTConfig{
		Secret:            "auth-test-secret",
		AccessTokenExpiry: time.Hour,
	})
}

func TestRegister_CreatesUserAndToken(t *testing.T) {
	svc := setupAuthTest(t)

	user, token, err := svc.Register(RegisterInput{
		Email:    "new@test.com",
		Password: "supersecret1",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "supersecret1", user.PasswordHash)

	claims, err := util.ValidateToken(token, "auth-test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "new@test.com", claims.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupAuthTest(t)

	input := RegisterInput{Email: "dup@test.com", Password: "supersecret1", Name: "First"}
	_, _, err := svc.Register(input)
	require.NoError(t, err)

	_, _, err = svc.Register(input)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := setupAuthTest(t)

	_, _, err := svc.Register(RegisterInput{
		Email:    "login@test.com",
		Password: "supersecret1",
		Name:     "Login User",
	})
	require.NoError(t, err)

	user, token, err := svc.Login(LoginInput{Email: "login@test.com", Password: "supersecret1"})
	require.NoError(t, err)
	assert.Equal(t, "login@test.com", user.Email)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(LoginInput{Email: "login@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(LoginInput{Email: "nobody@test.com", Password: "supersecret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc := setupAuthTest(t)

	registered, _, err := svc.Register(RegisterInput{
		Email:    "profile@test.com",
		Password: "supersecret1",
		Name:     "Before",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(registered.ID, ProfileInput{
		Name:       "After",
		Address:    "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
		Phone:      "+1-555-0100",
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "Springfield", updated.City)

	_, err = svc.UpdateProfile(9999, ProfileInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
