package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
)

// GetWallet returns the caller's balances
func GetWallet(c *gin.Context) {
	wallet, err := business.WalletBalance(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// GetWalletSummary returns the caller's settlement-center projection
func GetWalletSummary(c *gin.Context) {
	summary, err := business.GetWalletSummary(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetWalletLedger returns the caller's ledger entries, newest first
func GetWalletLedger(c *gin.Context) {
	limit, offset := pageParams(c)

	var periodID *uint
	if raw := c.Query("period_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period_id format"})
			return
		}
		pid := uint(v)
		periodID = &pid
	}

	entries, err := business.LedgerHistory(currentUserID(c), periodID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetUserWallet returns any user's balances (admin)
func GetUserWallet(c *gin.Context) {
	userID := paramUint(c, "user_id")
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id format"})
		return
	}

	wallet, err := business.WalletBalance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Cross-check the projection against the append-only entries; a
	// mismatch means the wallet row was touched outside the ledger.
	available, locked, err := business.LedgerSum(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":           wallet,
		"ledger_available": available,
		"ledger_locked":    locked,
		"consistent":       wallet.AvailableCoins == available && wallet.LockedCoins == locked,
	})
}
