package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWalletRoutes sets up all routes related to wallet balances and the
// ledger feed
func SetupWalletRoutes(r *gin.Engine) {
	wallet := r.Group("/api/wallet", middleware.IdentityRequired())
	{
		wallet.GET("", handlers.GetWallet)
		wallet.GET("/summary", handlers.GetWalletSummary)
		wallet.GET("/ledger", handlers.GetWalletLedger)
	}

	admin := r.Group("/api/admin/wallets", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.GET("/:user_id", handlers.GetUserWallet)
	}

	r.GET("/ws/ledger", middleware.IdentityRequired(), middleware.AdminRequired(), handlers.LedgerFeed)
}
