package service

import (
	"context"
	"errors"
	"os"
	"time"

	"storepay/internal/logger"
	"storepay/internal/model"
	"storepay/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// AuthService mints the JWTs the API and websocket endpoints gate on.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	// SeedAdmin creates a bootstrap admin account when the users table is
	// empty, so a fresh deployment is reachable without manual SQL.
	SeedAdmin(ctx context.Context, username, password string) error
}

type authService struct {
	repo repository.UserRepository
}

var authLog = logger.WithComponent("auth")

func NewAuthService(repo repository.UserRepository) AuthService {
	return &authService{repo: repo}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid username or password")
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	if user.StoreID != nil {
		claims["store_id"] = user.StoreID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Same fallback strategy as the middleware
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	authLog.Info().Str("username", req.Username).Str("role", user.Role).Msg("user logged in")

	return &TokenResponse{Token: tokenString, Role: user.Role}, nil
}

func (s *authService) SeedAdmin(ctx context.Context, username, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username: username,
		Email:    username + "@localhost",
		Password: string(hashed),
		Role:     model.RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return err
	}

	authLog.Warn().Str("username", username).Msg("seeded bootstrap admin account")
	return nil
}
