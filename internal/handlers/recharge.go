package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/models"
)

// CreateRechargeRequest represents the request body for creating a recharge order
type CreateRechargeRequest struct {
	AmountCoins int64  `json:"amount_coins" binding:"required"`
	Remark      string `json:"remark"`
}

// CreateRechargeOrder opens a pending recharge order for the caller
func CreateRechargeOrder(c *gin.Context) {
	var request CreateRechargeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := business.CreateRechargeOrder(currentUserID(c), request.AmountCoins, request.Remark)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetRechargeOrder returns one of the caller's orders by order number
func GetRechargeOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	order, err := business.GetRechargeOrder(orderNo)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if order.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListMyRechargeOrders lists the caller's orders
func ListMyRechargeOrders(c *gin.Context) {
	limit, offset := pageParams(c)
	status := models.RechargeStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	orders, err := business.ListRechargeOrders(currentUserID(c), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListRechargeOrders lists all orders (admin)
func ListRechargeOrders(c *gin.Context) {
	limit, offset := pageParams(c)
	status := models.RechargeStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	orders, err := business.ListRechargeOrders(0, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ConfirmRechargeRequest represents the request body for manually confirming
// a recharge order
type ConfirmRechargeRequest struct {
	OrderNo        string `json:"order_no" binding:"required"`
	GatewayTradeNo string `json:"gateway_trade_no"`
}

// ConfirmRecharge applies the split of a paid order (admin)
func ConfirmRecharge(c *gin.Context) {
	var request ConfirmRechargeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin := adminID(c)
	order, err := business.ConfirmRecharge(request.OrderNo, request.GatewayTradeNo, &admin)
	if err != nil {
		respondBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetRechargeSplits returns the per-party breakdown of an order (admin)
func GetRechargeSplits(c *gin.Context) {
	id := paramUint(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	splits, err := business.RechargeSplits(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, splits)
}
