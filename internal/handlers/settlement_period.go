package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
)

// CreatePeriodRequest represents the request body for creating a settlement period
type CreatePeriodRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	PayStart    string `json:"pay_start" binding:"required"`
	PayEnd      string `json:"pay_end" binding:"required"`
	SelfBps     int    `json:"self_bps"`
	L1Bps       int    `json:"l1_bps"`
	L2Bps       int    `json:"l2_bps"`
	PlatformBps int    `json:"platform_bps"`
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// CreatePeriod creates a new settlement period
func CreatePeriod(c *gin.Context) {
	var request CreatePeriodRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := business.CreatePeriodInput{
		SelfBps:     request.SelfBps,
		L1Bps:       request.L1Bps,
		L2Bps:       request.L2Bps,
		PlatformBps: request.PlatformBps,
	}
	var err error
	if in.PeriodStart, err = parseDay(request.PeriodStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_start format"})
		return
	}
	if in.PeriodEnd, err = parseDay(request.PeriodEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_end format"})
		return
	}
	if in.PayStart, err = parseDay(request.PayStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pay_start format"})
		return
	}
	if in.PayEnd, err = parseDay(request.PayEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pay_end format"})
		return
	}

	period, created, err := business.CreatePeriod(in)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, period)
		return
	}
	c.JSON(http.StatusOK, period)
}

// ListPeriods returns all settlement periods
func ListPeriods(c *gin.Context) {
	periods, err := business.ListPeriods()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, periods)
}

// GetPeriod returns a specific settlement period by ID
func GetPeriod(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	period, err := business.GetPeriod(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, period)
}

// GetCurrentPeriod returns the active (non-reconciled) period, if any
func GetCurrentPeriod(c *gin.Context) {
	period, err := business.CurrentPeriod()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if period == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active period"})
		return
	}
	c.JSON(http.StatusOK, period)
}

// ClosePeriod closes an open settlement period
func ClosePeriod(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	period, err := business.ClosePeriod(id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// SnapshotPeriod freezes the referral relationships for a closed period
func SnapshotPeriod(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	snapshots, err := business.SnapshotPeriod(id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period_id":      id,
		"snapshot_count": len(snapshots),
	})
}

// GenerateObligations computes incomes, commissions and obligations for a
// snapshotted period
func GenerateObligations(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	result, err := business.GenerateObligations(id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenPaymentWindow opens the payment window for a generated period
func OpenPaymentWindow(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	period, err := business.OpenPaymentWindow(id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// ReconcilePeriod finalizes a period whose payment window has run its course
func ReconcilePeriod(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	report, err := business.ReconcilePeriod(id, time.Now())
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPeriodIncomes returns the per-user income breakdown of a period
func GetPeriodIncomes(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	incomes, err := business.PeriodIncomes(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, incomes)
}

// GetPeriodSnapshots returns the frozen referral rows of a period
func GetPeriodSnapshots(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	snapshots, err := business.PeriodSnapshots(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshots)
}
