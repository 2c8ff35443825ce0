package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
	dbconfig "settlecontrol/pkg/config"

	"settlecontrol/internal/models"
)

// SubmitProofRequest represents the request body for submitting a payment proof
type SubmitProofRequest struct {
	PeriodID uint   `json:"period_id" binding:"required"`
	ProofURL string `json:"proof_url" binding:"required"`
	Remark   string `json:"remark"`
}

// SubmitPaymentProof lets a user hand in a payment voucher for their
// obligation of the given period
func SubmitPaymentProof(c *gin.Context) {
	var request SubmitProofRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ob, err := business.SubmitObligationProof(request.PeriodID, currentUserID(c), request.ProofURL, request.Remark)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, ob)
}

// GetMyObligation returns the caller's obligation for a period
func GetMyObligation(c *gin.Context) {
	periodID := paramUint(c, "period_id")
	if periodID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_id format"})
		return
	}

	ob, err := business.GetObligation(periodID, currentUserID(c))
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, ob)
}

// ListMyObligations returns all of the caller's obligations, newest first
func ListMyObligations(c *gin.Context) {
	var obs []models.SettlementObligation
	err := dbconfig.DB.Where("user_id = ?", currentUserID(c)).
		Order("period_id DESC").Find(&obs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, obs)
}

// ListPeriodObligations returns a period's obligations with optional status filter
func ListPeriodObligations(c *gin.Context) {
	periodID := paramUint(c, "period_id")
	if periodID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_id format"})
		return
	}

	status := models.ObligationStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	obs, err := business.ListObligations(periodID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, obs)
}

// ReviewObligationRequest represents the request body for confirming or
// rejecting a payment proof
type ReviewObligationRequest struct {
	PeriodID uint   `json:"period_id" binding:"required"`
	UserID   uint   `json:"user_id" binding:"required"`
	Reason   string `json:"reason"`
}

// ConfirmObligation marks a payment as received and unlocks the commissions
// derived from the payer's earnings
func ConfirmObligation(c *gin.Context) {
	var request ReviewObligationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := business.ConfirmObligation(request.PeriodID, request.UserID, adminID(c))
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectObligation sends a payment proof back for resubmission
func RejectObligation(c *gin.Context) {
	var request ReviewObligationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required when rejecting"})
		return
	}

	ob, err := business.RejectObligation(request.PeriodID, request.UserID, adminID(c), request.Reason)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, ob)
}

// GetUnpaidReport lists obligations still outstanding for a period
func GetUnpaidReport(c *gin.Context) {
	periodID := paramUint(c, "period_id")
	if periodID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_id format"})
		return
	}

	var obs []models.SettlementObligation
	err := dbconfig.DB.Where("period_id = ? AND status != ?",
		periodID, models.ObligationStatusConfirmed).
		Order("amount_due DESC").Find(&obs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var totalDue int64
	for _, ob := range obs {
		totalDue += ob.AmountDue
	}
	c.JSON(http.StatusOK, gin.H{
		"period_id":    periodID,
		"unpaid_count": len(obs),
		"total_due":    totalDue,
		"obligations":  obs,
	})
}
