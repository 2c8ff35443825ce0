package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWithdrawRoutes sets up all routes related to withdrawal requests
func SetupWithdrawRoutes(r *gin.Engine) {
	withdraw := r.Group("/api/withdrawals", middleware.IdentityRequired())
	{
		withdraw.POST("", handlers.CreateWithdraw)
		withdraw.GET("/my", handlers.ListMyWithdraws)
		withdraw.POST("/:id/cancel", handlers.CancelWithdraw)
	}

	admin := r.Group("/api/admin/withdrawals", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.GET("", handlers.ListWithdraws)
		admin.POST("/:id/approve", handlers.ApproveWithdraw)
		admin.POST("/:id/reject", handlers.RejectWithdraw)
		admin.POST("/:id/pay", handlers.PayWithdraw)
	}
}
