package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
)

// IngestEarningsRequest represents the collector's batch upload
type IngestEarningsRequest struct {
	Records []business.EarningInput `json:"records" binding:"required"`
}

// IngestEarnings upserts daily earning rows from the external collector
func IngestEarnings(c *gin.Context) {
	var request IngestEarningsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := business.IngestEarnings(request.Records)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Earnings ingested successfully",
		"ingested_count": count,
	})
}

func earningsRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	fromStr := c.DefaultQuery("from", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	toStr := c.DefaultQuery("to", time.Now().AddDate(0, 0, 1).Format("2006-01-02"))
	if from, err = time.Parse("2006-01-02", fromStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
		return from, to, false
	}
	if to, err = time.Parse("2006-01-02", toStr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
		return from, to, false
	}
	return from, to, true
}

// GetMyEarnings lists the caller's daily earning rows over a date range
func GetMyEarnings(c *gin.Context) {
	from, to, ok := earningsRange(c)
	if !ok {
		return
	}

	records, err := business.UserEarnings(currentUserID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetMyEarningStats returns the caller's aggregate over a date range
func GetMyEarningStats(c *gin.Context) {
	from, to, ok := earningsRange(c)
	if !ok {
		return
	}

	stats, err := business.UserEarningStats(currentUserID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetUserEarningStats returns any user's aggregate over a date range (admin)
func GetUserEarningStats(c *gin.Context) {
	userID := paramUint(c, "user_id")
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id format"})
		return
	}
	from, to, ok := earningsRange(c)
	if !ok {
		return
	}

	stats, err := business.UserEarningStats(userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
