package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/models"
)

// CreateWithdrawRequest represents the request body for creating a withdrawal
type CreateWithdrawRequest struct {
	AmountCoins int64  `json:"amount_coins" binding:"required"`
	Method      string `json:"method" binding:"required"`
	AccountInfo string `json:"account_info" binding:"required"`
}

// CreateWithdraw files a withdrawal request and reserves the amount
func CreateWithdraw(c *gin.Context) {
	var request CreateWithdrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := business.CreateWithdraw(currentUserID(c), request.AmountCoins, request.Method, request.AccountInfo)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// CancelWithdraw cancels the caller's own pending request
func CancelWithdraw(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	req, err := business.CancelWithdraw(currentUserID(c), id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListMyWithdraws lists the caller's withdrawal requests
func ListMyWithdraws(c *gin.Context) {
	limit, offset := pageParams(c)
	status := models.WithdrawStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	reqs, err := business.ListWithdraws(currentUserID(c), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// ListWithdraws lists all withdrawal requests (admin)
func ListWithdraws(c *gin.Context) {
	limit, offset := pageParams(c)
	status := models.WithdrawStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	reqs, err := business.ListWithdraws(0, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// ApproveWithdraw accepts a pending request for payout (admin)
func ApproveWithdraw(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	req, err := business.ApproveWithdraw(adminID(c), id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectWithdrawRequest represents the request body for rejecting a withdrawal
type RejectWithdrawRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectWithdraw refuses a request and restores the reserved amount (admin)
func RejectWithdraw(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request RejectWithdrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := business.RejectWithdraw(adminID(c), id, request.Reason)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// PayWithdraw marks an approved request as paid out (admin)
func PayWithdraw(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	req, err := business.PayWithdraw(adminID(c), id)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
