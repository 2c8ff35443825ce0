package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupSettlementRoutes sets up all routes related to settlement periods and
// payment obligations
func SetupSettlementRoutes(r *gin.Engine) {
	settlement := r.Group("/api/settlement", middleware.IdentityRequired())
	{
		settlement.GET("/period/current", handlers.GetCurrentPeriod)
		settlement.GET("/me/:period_id", handlers.GetMyObligation)
		settlement.GET("/my-payments", handlers.ListMyObligations)
		settlement.POST("/proof", handlers.SubmitPaymentProof)
	}

	admin := r.Group("/api/admin/periods", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.GET("", handlers.ListPeriods)
		admin.POST("", handlers.CreatePeriod)
		admin.GET("/:id", handlers.GetPeriod)
		admin.POST("/:id/close", handlers.ClosePeriod)
		admin.POST("/:id/snapshot", handlers.SnapshotPeriod)
		admin.POST("/:id/generate", handlers.GenerateObligations)
		admin.POST("/:id/open-payment-window", handlers.OpenPaymentWindow)
		admin.POST("/:id/reconcile", handlers.ReconcilePeriod)
		admin.GET("/:id/incomes", handlers.GetPeriodIncomes)
		admin.GET("/:id/snapshots", handlers.GetPeriodSnapshots)
	}

	payments := r.Group("/api/admin/payments", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		payments.GET("/by-period/:period_id", handlers.ListPeriodObligations)
		payments.GET("/unpaid/:period_id", handlers.GetUnpaidReport)
		payments.POST("/confirm", handlers.ConfirmObligation)
		payments.POST("/reject", handlers.RejectObligation)
	}
}
