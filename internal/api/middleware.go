package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
	ContextTokenKey  = "token"
)

// AuthMiddleware accepts a Bearer token that validates and is not revoked.
func AuthMiddleware(authService service.AuthService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		token := parts[1]

		userID, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "message": message})
}

// respondError maps service error kinds to status codes. Storage and
// unclassified failures are logged and answered generically.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		abortWithError(c, http.StatusBadRequest, "File exceeds the maximum allowed size")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrStorage):
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnsupportedMedia),
		errors.Is(err, service.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		abortWithError(c, status, "Internal server error")
		return
	}

	message := http.StatusText(status)
	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		message = svcErr.Message
	}
	abortWithError(c, status, message)
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	id, ok := idRaw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("invalid user ID type in context")
	}
	return id, nil
}

// mustUserID aborts with 401 when no authenticated user is present.
func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses a UUID route parameter, answering 400 when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
