package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRechargeRoutes sets up all routes related to recharge orders
func SetupRechargeRoutes(r *gin.Engine) {
	recharge := r.Group("/api/recharges", middleware.IdentityRequired())
	{
		recharge.POST("", handlers.CreateRechargeOrder)
		recharge.GET("/my", handlers.ListMyRechargeOrders)
		recharge.GET("/:order_no", handlers.GetRechargeOrder)
	}

	admin := r.Group("/api/admin/recharges", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.GET("", handlers.ListRechargeOrders)
		admin.POST("/confirm", handlers.ConfirmRecharge)
		admin.GET("/:id/splits", handlers.GetRechargeSplits)
	}
}
