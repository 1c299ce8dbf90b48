package repository

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"database/sql"
	"errors"
	"fmt"
)

//go:generate mockgen -source=user_repository.go -destination=mocks/mock_user_repository.go -package=mocks

// UserRepository defines the interface for user data operations. Lookups
// return (nil, nil) when no user matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type sqliteUserRepository struct {
	db DBTX
}

// NewUserRepository creates a new SQLite-based UserRepository.
func NewUserRepository(db DBTX) UserRepository {
	return &sqliteUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash`

// CreateUser inserts a new user and sets user.ID. The password must already
// be hashed.
func (r *sqliteUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, span := tracer.Start(ctx, "UserRepository.CreateUser")
	defer span.End()

	query := `INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by primary key.
func (r *sqliteUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.GetUserByID")
	defer span.End()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername retrieves a user from the database by their username.
func (r *sqliteUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.GetUserByUsername")
	defer span.End()

	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetUserByUsernameOrEmail returns any user holding either value.
func (r *sqliteUserRepository) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.GetUserByUsernameOrEmail")
	defer span.End()

	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ? LIMIT 1`
	return r.getOne(ctx, query, username, email)
}

func (r *sqliteUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.ListUsers")
	defer span.End()

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser writes the mutable columns of user.
func (r *sqliteUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, span := tracer.Start(ctx, "UserRepository.UpdateUser")
	defer span.End()

	query := `UPDATE users SET username = ?, email = ?, password_hash = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes the user's tasks and then the user. Run it inside
// Store.WithinTx so both statements are atomic.
func (r *sqliteUserRepository) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "UserRepository.DeleteUser")
	defer span.End()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user tasks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No user found is not an application error
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
