package routes

import (
	"settlecontrol/internal/handlers"
	"settlecontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReferralRoutes sets up all routes related to referral relations
func SetupReferralRoutes(r *gin.Engine) {
	referral := r.Group("/api/referrals", middleware.IdentityRequired())
	{
		referral.POST("/bind", handlers.BindReferral)
		referral.GET("/me", handlers.GetMyReferral)
		referral.GET("/my-invites", handlers.GetMyInvites)
	}

	admin := r.Group("/api/admin/referrals", middleware.IdentityRequired(), middleware.AdminRequired())
	{
		admin.GET("/chain/:user_id", handlers.GetReferralChain)
	}
}
