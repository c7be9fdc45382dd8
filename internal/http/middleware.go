package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"notes-service/internal/auth"
	"notes-service/internal/domain"
)

const (
	userIDKey = "auth.user_id"
	roleKey   = "auth.role"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs one line per request, at a level picked from the status.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start),
			"bytes":   c.Writer.Size(),
		})
		if id, ok := c.Get(userIDKey); ok {
			entry = entry.WithField("user_id", id)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// authMiddleware verifies the bearer token and stores the caller identity on
// the context. Requests without a usable token never reach the handlers.
func authMiddleware(tokens *auth.Issuer, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("Missing authorization token"))
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			logger.WithError(err).Debug("rejecting token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("Invalid authorization token"))
			return
		}
		if claims.Role != domain.RoleUser {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse("Forbidden"))
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
