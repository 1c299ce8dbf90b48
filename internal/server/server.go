package server

import (
	"context"
	"ctchen222/TaskManager/internal/api/controller"
	"ctchen222/TaskManager/internal/api/middleware"
	"ctchen222/TaskManager/internal/api/response"
	"ctchen222/TaskManager/internal/validator"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	engine   *gin.Engine
	users    *controller.UserController
	tasks    *controller.TaskController
	resolver middleware.Resolver
	health   HealthChecker
}

func NewServer(users *controller.UserController, tasks *controller.TaskController, resolver middleware.Resolver, health HealthChecker) *Server {
	binding.Validator = validator.Gin()

	engine := gin.New()
	engine.Use(gin.Recovery(), traceRequests(), middleware.RequestLogger())

	s := &Server{
		engine:   engine,
		users:    users,
		tasks:    tasks,
		resolver: resolver,
		health:   health,
	}
	s.RegisterHandlers()
	return s
}

func (s *Server) RegisterHandlers() {
	s.engine.GET("/healthz", s.handleHealth)

	authenticated := middleware.Authenticate(s.resolver)

	users := s.engine.Group("/users")
	users.POST("/register", s.users.Register)
	users.POST("/login", s.users.Login)
	users.POST("/refresh", s.users.Refresh)
	users.GET("/me", authenticated, s.users.Me)
	users.GET("", authenticated, s.users.List)
	users.GET("/:id", authenticated, s.users.Get)
	users.PUT("/:id", authenticated, s.users.Update)
	users.DELETE("/:id", authenticated, s.users.Delete)

	tasks := s.engine.Group("/tasks", authenticated)
	tasks.POST("", s.tasks.Create)
	tasks.GET("", s.tasks.List)
	tasks.GET("/:id", s.tasks.Get)
	tasks.PUT("/:id", s.tasks.Update)
	tasks.DELETE("/:id", s.tasks.Delete)
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.PingContext(c.Request.Context()); err != nil {
			slog.WarnContext(c.Request.Context(), "health check failed", "error", err)
			response.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	response.SuccessResponse(c, gin.H{"status": "ok"})
}

// traceRequests starts one server span per request, continuing any trace
// propagated by the caller.
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
	}
}
