// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/config"
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

// ErrInvalidCredentials is kept apart from the domain error kinds so the
// handler can answer 401 instead of 403.
var ErrInvalidCredentials = errors.New("incorrect username or password")

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,role"`
	Location string `json:"location" validate:"required,max=100"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// Find user by username
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Verify password
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateJWT(
		user.ID,
		user.Username,
		string(user.Role),
		user.Location,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        &user,
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 60,
	}, nil
}

// SeedAdmin creates the bootstrap admin account if it does not exist
// yet and returns it either way.
func (s *AuthService) SeedAdmin() (*models.User, error) {
	var existing models.User
	err := s.db.Where("username = ?", "admin").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	admin := &models.User{
		Username: "admin",
		Role:     models.RoleAdmin,
		Location: "HQ",
	}
	if err := admin.SetPassword("admin123"); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	return admin, nil
}

func (s *AuthService) CreateUser(req *CreateUserRequest) (*models.User, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	// Check if user already exists
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, errs.Validationf("username already exists")
	}

	user := &models.User{
		Username: req.Username,
		Role:     models.Role(req.Role),
		Location: req.Location,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
