package service

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/repository"
	"ctchen222/TaskManager/internal/apperror"
	"ctchen222/TaskManager/internal/auth"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

var tracer = otel.Tracer("api.service")

const reasonInvalidCredentials = "invalid credentials"

// TokenIssuer is the part of the token service the credential flows need.
type TokenIssuer interface {
	IssueAccess(userID int64) (string, error)
	IssueRefresh(userID int64) (string, error)
	VerifyRefresh(raw string) (int64, error)
}

// Transactor runs fn against repositories bound to one transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn repository.TxFunc) error
}

// LoginAttempts tracks failed logins per username.
type LoginAttempts interface {
	Failures(ctx context.Context, username string) (int64, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, identity *models.User, id int64, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, identity *models.User, id int64) error
}

type userService struct {
	userRepo   repository.UserRepository
	tx         Transactor
	tokens     TokenIssuer
	bcryptCost int

	attempts    LoginAttempts
	maxAttempts int64

	// dummyHash is compared against when the username is unknown, so both
	// login failures cost one bcrypt comparison.
	dummyHash func() []byte
}

// UserServiceOption customizes a UserService.
type UserServiceOption func(*userService)

// WithLoginAttempts enables lockout after maxFailures failed logins.
func WithLoginAttempts(attempts LoginAttempts, maxFailures int) UserServiceOption {
	return func(s *userService) {
		s.attempts = attempts
		s.maxAttempts = int64(maxFailures)
	}
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, tx Transactor, tokens TokenIssuer, bcryptCost int, opts ...UserServiceOption) UserService {
	s := &userService{
		userRepo:   userRepo,
		tx:         tx,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
	s.dummyHash = sync.OnceValue(func() []byte {
		hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
		if err != nil {
			slog.Warn("failed to prepare dummy password hash", "error", err)
		}
		return hash
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. Username and email must both be unused.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, apperror.Conflict("username or email already registered")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperror.Wrap(apperror.KindConflict, "username or email already registered", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the password and returns a fresh access and refresh token.
// An unknown username and a wrong password fail identically.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if s.lockedOut(ctx, req.Username) {
		return nil, apperror.TooManyRequests("too many failed login attempts")
	}

	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(req.Password))
		s.recordFailure(ctx, req.Username, "unknown username")
		return nil, apperror.Unauthenticated(reasonInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, req.Username, "password mismatch")
		return nil, apperror.Unauthenticated(reasonInvalidCredentials)
	}
	s.resetFailures(ctx, req.Username)

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    models.TokenTypeBearer,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "UserService.Refresh")
	defer span.End()

	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		slog.DebugContext(ctx, "refresh token rejected", "error", err)
		return nil, apperror.Wrap(apperror.KindUnauthenticated, auth.ReasonInvalidCredential, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		slog.DebugContext(ctx, "refresh token rejected", "reason", auth.ReasonUnknownSubject, "user_id", id)
		return nil, apperror.Unauthenticated(auth.ReasonUnknownSubject)
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken: access,
		TokenType:   models.TokenTypeBearer,
	}, nil
}

// Get returns any user by id.
func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Get")
	defer span.End()

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.List")
	defer span.End()

	return s.userRepo.ListUsers(ctx)
}

// Update applies a partial update to the caller's own account.
func (s *userService) Update(ctx context.Context, identity *models.User, id int64, req *models.UpdateUserRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Update")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	patch := models.UserPatch{
		Username: req.Username,
		Email:    req.Email,
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	var updated *models.User
	err := s.tx.WithinTx(ctx, func(users repository.UserRepository, _ repository.TaskRepository) error {
		user, err := users.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOwner(user, identity); err != nil {
			return err
		}

		patch.ApplyTo(user)
		if err := users.UpdateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperror.Wrap(apperror.KindConflict, "username or email already registered", err)
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user updated", "user_id", updated.ID)
	return updated, nil
}

// Delete removes the caller's own account together with all of its tasks.
func (s *userService) Delete(ctx context.Context, identity *models.User, id int64) error {
	ctx, span := tracer.Start(ctx, "UserService.Delete")
	defer span.End()

	err := s.tx.WithinTx(ctx, func(users repository.UserRepository, _ repository.TaskRepository) error {
		user, err := users.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOwner(user, identity); err != nil {
			return err
		}
		return users.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Wrap(apperror.KindInvalidArgument, "password: max=72 bytes", err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// lockedOut fails open: a limiter outage never blocks logins.
func (s *userService) lockedOut(ctx context.Context, username string) bool {
	if s.attempts == nil {
		return false
	}
	n, err := s.attempts.Failures(ctx, username)
	if err != nil {
		slog.WarnContext(ctx, "login limiter unavailable", "error", err)
		return false
	}
	if n >= s.maxAttempts {
		slog.WarnContext(ctx, "login rejected, account locked out", "username", username, "failures", n)
		return true
	}
	return false
}

func (s *userService) recordFailure(ctx context.Context, username, reason string) {
	slog.InfoContext(ctx, "login failed", "username", username, "reason", reason)
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, username); err != nil {
		slog.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

func (s *userService) resetFailures(ctx context.Context, username string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, username); err != nil {
		slog.WarnContext(ctx, "failed to reset login failures", "error", err)
	}
}
