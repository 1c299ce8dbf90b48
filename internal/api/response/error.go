package response

import (
	"ctchen222/TaskManager/internal/apperror"
	"ctchen222/TaskManager/internal/validator"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Messages shown for failures whose reason must stay internal.
const (
	MessageUnauthenticated = "could not validate credentials"
	MessageInternal        = "internal server error"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case apperror.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an error envelope. Credential failures all render the
// same message and unclassified errors never leak their text.
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := StatusOf(kind)

	message := apperror.ReasonOf(err)
	switch kind {
	case apperror.KindUnauthenticated:
		c.Header("WWW-Authenticate", "Bearer")
		message = MessageUnauthenticated
	case apperror.KindUnknown:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		message = MessageInternal
	}

	_ = c.Error(err)
	ErrorResponse(c, status, message)
}

// Abort is Error followed by aborting the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindError reports a request body that could not be decoded or validated.
func BindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusUnprocessableEntity, validator.Describe(err))
}
