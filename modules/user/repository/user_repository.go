package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tablepick/core/database"
	"tablepick/core/logger"
	"tablepick/modules/user/entity"

	"github.com/google/uuid"
)

type UserRepository struct {
	db database.IDatabase
}

func NewUserRepository(db database.IDatabase) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		logger.Error("UserRepository:Create:Error:", err)
		return err
	}
	return nil
}

// GetByEmail returns (nil, nil) when no user matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	query := `SELECT id, email, username, password_hash, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("UserRepository:GetByEmail:Error:", err)
		return nil, err
	}
	return &user, nil
}

// GetByID returns (nil, nil) when no user matches.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	query := `SELECT id, email, username, password_hash, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("UserRepository:GetByID:Error:", err)
		return nil, err
	}
	return &user, nil
}
