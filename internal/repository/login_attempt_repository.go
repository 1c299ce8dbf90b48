package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.login_attempt")

// LoginAttemptRepository counts failed logins per username inside a sliding
// window. Each new failure pushes the window's end forward.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, username string) (int64, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}

type redisLoginAttemptRepository struct {
	rdb    *redis.Client
	window time.Duration
}

// NewLoginAttemptRepository creates a new Redis-based LoginAttemptRepository.
func NewLoginAttemptRepository(rdb *redis.Client, window time.Duration) LoginAttemptRepository {
	return &redisLoginAttemptRepository{
		rdb:    rdb,
		window: window,
	}
}

func attemptKey(username string) string {
	return fmt.Sprintf("login:failures:%s", strings.ToLower(username))
}

// Failures returns the current failure count for username.
func (r *redisLoginAttemptRepository) Failures(ctx context.Context, username string) (int64, error) {
	ctx, span := tracer.Start(ctx, "LoginAttemptRepository.Failures")
	defer span.End()

	n, err := r.rdb.Get(ctx, attemptKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read login failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the failure count and returns the new value.
func (r *redisLoginAttemptRepository) RecordFailure(ctx context.Context, username string) (int64, error) {
	ctx, span := tracer.Start(ctx, "LoginAttemptRepository.RecordFailure")
	defer span.End()

	key := attemptKey(username)
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	return incr.Val(), nil
}

// Reset clears the failure count, typically after a successful login.
func (r *redisLoginAttemptRepository) Reset(ctx context.Context, username string) error {
	ctx, span := tracer.Start(ctx, "LoginAttemptRepository.Reset")
	defer span.End()

	if err := r.rdb.Del(ctx, attemptKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}
