package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEarningsRoutes sets up all routes related to earning records
func SetupEarningsRoutes(r *gin.Engine) {
	earnings := r.Group("/api/earnings", middleware.IdentityRequired())
	{
		earnings.GET("/my", handlers.GetMyEarnings)
		earnings.GET("/my/stats", handlers.GetMyEarningStats)
	}

	// The external collector posts through the admin group.
	admin := r.Group("/api/admin/earnings", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.POST("", handlers.IngestEarnings)
		admin.GET("/stats/:user_id", handlers.GetUserEarningStats)
	}
}
