package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/assetdesk/internal/apperrors"
)

// respondError writes an AppError with its own status; anything else is logged and hidden behind a 500.
func (s *Server) respondError(c *gin.Context, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		body := gin.H{"error": appErr.Message}
		if appErr.Details != "" && appErr.Code < http.StatusInternalServerError {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.Code, body)
		return
	}
	_ = c.Error(err)
	s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func (s *Server) abort(c *gin.Context, err error) {
	s.respondError(c, err)
	c.Abort()
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
