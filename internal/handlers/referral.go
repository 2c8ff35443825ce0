package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
)

// BindReferralRequest represents the request body for binding an inviter
type BindReferralRequest struct {
	InviterID uint `json:"inviter_id" binding:"required"`
}

// BindReferral binds the caller under an inviter; the relation is write-once
func BindReferral(c *gin.Context) {
	var request BindReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rel, err := business.BindReferral(currentUserID(c), request.InviterID)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// GetMyReferral returns the caller's upline relation
func GetMyReferral(c *gin.Context) {
	rel, err := business.GetReferral(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No referral relation"})
		return
	}
	c.JSON(http.StatusOK, rel)
}

// GetMyInvites lists the caller's direct and second-level downline
func GetMyInvites(c *gin.Context) {
	invites, err := business.MyInvites(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invites)
}

// GetReferralChain returns a user plus their two ancestors (admin)
func GetReferralChain(c *gin.Context) {
	userID := paramUint(c, "user_id")
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id format"})
		return
	}

	chain, err := business.ReferralChain(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chain)
}
