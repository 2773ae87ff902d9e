package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"users-be/internal/jwt"
	"users-be/internal/models"
	"users-be/internal/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Login authenticates a user and returns a signed token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, NewMissingArgument("email and password are required")
	}

	user, err := s.userRepo.FindOne(ctx, req.Email, "")
	if err != nil {
		return nil, NewAccessError(err)
	}
	// Same message for unknown email and wrong password
	if user == nil {
		return nil, NewUnauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorized("invalid email or password")
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, NewAccessError(fmt.Errorf("failed to generate token: %w", err))
	}

	return &models.AuthResponse{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token,
	}, nil
}
