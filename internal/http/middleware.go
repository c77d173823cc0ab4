package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/auth"
	"github.com/example/assetdesk/internal/service"
)

const (
	ctxClaims    = "claims"
	ctxRequestID = "request_id"
	headerReqID  = "X-Request-ID"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerReqID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerReqID, id)
		c.Next()
	}
}

func accessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
		}
		if claims, ok := claimsFrom(c); ok {
			args = append(args, "user_id", claims.UserID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("HTTP request completed", args...)
		case status >= 400:
			log.Warn("HTTP request completed", args...)
		default:
			log.Debug("HTTP request completed", args...)
		}
	}
}

func recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", fmt.Sprint(recovered),
			"stack", string(debug.Stack()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// bearerToken reads the Authorization header, falling back to ?token= for download links.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// authenticate rejects requests without a token (401) or with an invalid one (403).
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			s.abort(c, apperrors.NewUnauthorizedError("missing authorization token"))
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.log.Debug("token rejected", "error", err)
			s.abort(c, apperrors.NewForbiddenError("invalid or expired token"))
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// requirePermission consults the policy table for the caller's role.
func (s *Server) requirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			s.abort(c, apperrors.NewUnauthorizedError("user not authenticated"))
			return
		}
		allowed, err := s.guard.Allowed(claims.Role, resource, action)
		if err != nil {
			s.log.Error("permission check failed", "error", err, "resource", resource, "action", action)
			s.abort(c, apperrors.NewInternalError("permission check failed"))
			return
		}
		if !allowed {
			s.abort(c, apperrors.NewForbiddenError("insufficient permissions"))
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func actorFrom(c *gin.Context) service.Actor {
	claims, ok := claimsFrom(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role, FullName: claims.FullName}
}
