package models

import "time"

// WithdrawStatus lifecycle: pending -> approved -> paid, or pending ->
// rejected / cancelled. approved may still be rejected by an admin; paid,
// rejected and cancelled are terminal.
type WithdrawStatus string

const (
	WithdrawStatusPending   WithdrawStatus = "pending"
	WithdrawStatusApproved  WithdrawStatus = "approved"
	WithdrawStatusRejected  WithdrawStatus = "rejected"
	WithdrawStatusPaid      WithdrawStatus = "paid"
	WithdrawStatusCancelled WithdrawStatus = "cancelled"
)

func (s WithdrawStatus) IsValid() bool {
	switch s {
	case WithdrawStatusPending, WithdrawStatusApproved, WithdrawStatusRejected,
		WithdrawStatusPaid, WithdrawStatusCancelled:
		return true
	default:
		return false
	}
}

func (s WithdrawStatus) IsTerminal() bool {
	switch s {
	case WithdrawStatusRejected, WithdrawStatusPaid, WithdrawStatusCancelled:
		return true
	default:
		return false
	}
}

var withdrawNext = map[WithdrawStatus][]WithdrawStatus{
	WithdrawStatusPending:  {WithdrawStatusApproved, WithdrawStatusRejected, WithdrawStatusCancelled},
	WithdrawStatusApproved: {WithdrawStatusPaid, WithdrawStatusRejected},
}

func (s WithdrawStatus) CanTransitionTo(next WithdrawStatus) bool {
	for _, n := range withdrawNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// WithdrawRequest reserves available balance at creation time; the reserved
// amount is restored exactly on rejection or cancellation.
type WithdrawRequest struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	AmountCoins  int64          `gorm:"not null" json:"amount_coins"`
	Status       WithdrawStatus `gorm:"size:16;default:pending;index" json:"status"`
	Method       string         `gorm:"size:32" json:"method"`
	AccountInfo  string         `gorm:"size:256" json:"account_info"`
	ProcessedBy  *uint          `json:"processed_by"`
	ProcessedAt  *time.Time     `json:"processed_at"`
	RejectReason string         `gorm:"size:256" json:"reject_reason"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WithdrawRequest) TableName() string {
	return "withdraw_requests"
}
