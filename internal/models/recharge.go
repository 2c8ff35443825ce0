package models

import "time"

// RechargeStatus lifecycle: pending -> confirmed -> split_applied, or
// pending -> expired. Confirmation and split run in one transaction, so
// confirmed without split_applied is only observable if the split failed
// and is awaiting manual replay.
type RechargeStatus string

const (
	RechargeStatusPending      RechargeStatus = "pending"
	RechargeStatusConfirmed    RechargeStatus = "confirmed"
	RechargeStatusSplitApplied RechargeStatus = "split_applied"
	RechargeStatusExpired      RechargeStatus = "expired"
)

func (s RechargeStatus) IsValid() bool {
	switch s {
	case RechargeStatusPending, RechargeStatusConfirmed,
		RechargeStatusSplitApplied, RechargeStatusExpired:
		return true
	default:
		return false
	}
}

// RechargeOrder is created by the account owner and confirmed either by an
// admin or by the payment-gateway worker; both paths share one idempotent
// confirmation keyed on OrderNo.
type RechargeOrder struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	OrderNo        string         `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	UserID         uint           `gorm:"index;not null" json:"user_id"`
	AmountCoins    int64          `gorm:"not null" json:"amount_coins"`
	Status         RechargeStatus `gorm:"size:16;default:pending;index" json:"status"`
	GatewayTradeNo string         `gorm:"size:64" json:"gateway_trade_no"`
	RemarkIn       string         `gorm:"size:200" json:"remark_in"`
	ConfirmedBy    *uint          `json:"confirmed_by"`
	ConfirmedAt    *time.Time     `json:"confirmed_at"`
	ExpiredAt      time.Time      `json:"expired_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RechargeOrder) TableName() string {
	return "recharge_orders"
}

// RechargeSplit records one party's share of a confirmed order.
// Role is platform / agent_l1 / agent_l2 / owner.
type RechargeSplit struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	RechargeOrderID uint      `gorm:"index;not null" json:"recharge_order_id"`
	UserID          *uint     `gorm:"index" json:"user_id"`
	Role            string    `gorm:"size:16;not null" json:"role"`
	AmountCoins     int64     `gorm:"not null" json:"amount_coins"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RechargeSplit) TableName() string {
	return "recharge_splits"
}
