package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/middleware"
)

// respondBusinessError translates engine errors into HTTP status codes.
// Concurrency-sensitive rejections map to 409 so clients can retry safely.
func respondBusinessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, business.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, business.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, business.ErrDuplicateOperation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, business.ErrSnapshotMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// paramUint parses a positive uint path parameter; 0 means invalid.
func paramUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// pageParams returns limit/offset from page / page_size query parameters.
func pageParams(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return pageSize, (page - 1) * pageSize
}

func currentUserID(c *gin.Context) uint {
	user := middleware.CurrentUser(c)
	if user == nil {
		return 0
	}
	return user.ID
}

func adminID(c *gin.Context) uint {
	return currentUserID(c)
}
