package service

import (
	"context"
	"errors"
	"time"

	"github.com/velastore/velastore-backend/config"
	"github.com/velastore/velastore-backend/internal/app/model"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/redis"
	"github.com/velastore/velastore-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, string, error)
	Login(input LoginInput) (*model.User, string, error)
	Logout(ctx context.Context, token string) error
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, input ProfileInput) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, string, error) {
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, token, nil
}

func (s *authService) Login(input LoginInput) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !util.CheckPassword(input.Password, user.PasswordHash) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, token, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtCfg.Secret)
	if err != nil {
		// an already invalid token needs no revocation
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return redis.BlacklistToken(ctx, token, remaining)
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input ProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	user.Address = input.Address
	user.City = input.City
	user.PostalCode = input.PostalCode
	user.Country = input.Country
	user.Phone = input.Phone

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	return util.GenerateToken(user.ID, user.Email, string(user.Role), s.jwtCfg.Secret, s.jwtCfg.AccessTokenExpiry)
}
