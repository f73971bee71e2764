package service

import (
	"context"
	"strings"

	"tablepick/core/config"
	"tablepick/core/errors"
	"tablepick/core/logger"
	"tablepick/core/utils"
	"tablepick/modules/user/dto"
	"tablepick/modules/user/entity"
	"tablepick/modules/user/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// FallbackDisplayName is used when a user's name cannot be resolved; a lookup
// failure must never block a plan state transition.
const FallbackDisplayName = "A participant"

type UserService struct {
	repo *repository.UserRepository
	cfg  config.JWTConfig
}

func NewUserService(repo *repository.UserRepository, cfg config.JWTConfig) *UserService {
	return &UserService{repo: repo, cfg: cfg}
}

// Register creates a user account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, *errors.AppError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Username == "" || len(req.Password) < 8 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email, username and a password of at least 8 characters are required", nil)
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check existing user", err)
	}
	if existing != nil {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "An account with this email already exists", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to hash password", err)
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create user", err)
	}

	return s.buildAuthResponse(user)
}

// Login verifies credentials and issues a JWT.
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, *errors.AppError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid email or password", nil)
	}
	return s.buildAuthResponse(user)
}

// DisplayName resolves a username for notification bodies, falling back to a
// generic label on any failure.
func (s *UserService) DisplayName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || user == nil {
		logger.Warn("UserService:DisplayName:Fallback", "user_id", userID, "error", err)
		return FallbackDisplayName
	}
	return user.Username
}

func (s *UserService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, *errors.AppError) {
	token, err := utils.GenerateToken(user.ID, user.Email, s.cfg.Secret, s.cfg.TTL)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to issue token", err)
	}
	return &dto.AuthResponse{
		Token: token,
		User: dto.UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}
