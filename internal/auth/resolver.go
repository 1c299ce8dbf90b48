package auth

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/apperror"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	tracer = otel.Tracer("auth")
	meter  = otel.Meter("auth")
)

// Diagnostic reasons attached to Unauthenticated errors from Resolve. They
// are logged and counted; clients only ever see a generic 401.
const (
	ReasonMissingCredential = "missing credential"
	ReasonInvalidCredential = "invalid credential"
	ReasonUnknownSubject    = "unknown subject"
)

// AccessVerifier verifies an access token and returns its subject.
type AccessVerifier interface {
	VerifyAccess(raw string) (int64, error)
}

// UserLookup is the part of the credential store the resolver reads.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// IdentityResolver maps a bearer Authorization header to a stored user.
type IdentityResolver struct {
	tokens   AccessVerifier
	users    UserLookup
	failures metric.Int64Counter
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(tokens AccessVerifier, users UserLookup) *IdentityResolver {
	failures, err := meter.Int64Counter("auth.resolve.failures",
		metric.WithDescription("Rejected bearer credentials by reason."),
	)
	if err != nil {
		slog.Warn("failed to create auth failure counter", "error", err)
		failures = noop.Int64Counter{}
	}
	return &IdentityResolver{tokens: tokens, users: users, failures: failures}
}

// Resolve returns the user the bearer token in header was issued to. Every
// credential problem is reported as apperror.KindUnauthenticated; store
// failures are returned unclassified.
func (r *IdentityResolver) Resolve(ctx context.Context, header string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "IdentityResolver.Resolve")
	defer span.End()

	raw, ok := BearerToken(header)
	if !ok {
		return nil, r.reject(ctx, ReasonMissingCredential, nil)
	}

	id, err := r.tokens.VerifyAccess(raw)
	if err != nil {
		return nil, r.reject(ctx, ReasonInvalidCredential, err)
	}

	user, err := r.users.GetUserByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if user == nil {
		return nil, r.reject(ctx, ReasonUnknownSubject, nil)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return user, nil
}

func (r *IdentityResolver) reject(ctx context.Context, reason string, cause error) error {
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	if cause != nil {
		slog.DebugContext(ctx, "bearer credential rejected", "reason", reason, "error", cause)
	} else {
		slog.DebugContext(ctx, "bearer credential rejected", "reason", reason)
	}
	return apperror.Wrap(apperror.KindUnauthenticated, reason, cause)
}

// BearerToken extracts the token from a "Bearer <token>" header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
