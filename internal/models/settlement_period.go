package models

import "time"

// PeriodStatus is the settlement period lifecycle. Transitions are strictly
// linear; anything else is rejected by CanTransitionTo.
type PeriodStatus string

const (
	PeriodStatusOpen                 PeriodStatus = "open"
	PeriodStatusClosed               PeriodStatus = "closed"
	PeriodStatusSnapshotted          PeriodStatus = "snapshotted"
	PeriodStatusObligationsGenerated PeriodStatus = "obligations_generated"
	PeriodStatusPaymentWindow        PeriodStatus = "payment_window"
	PeriodStatusReconciled           PeriodStatus = "reconciled"
)

func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusOpen, PeriodStatusClosed, PeriodStatusSnapshotted,
		PeriodStatusObligationsGenerated, PeriodStatusPaymentWindow, PeriodStatusReconciled:
		return true
	default:
		return false
	}
}

// periodNext maps each status to the only status it may advance to.
var periodNext = map[PeriodStatus]PeriodStatus{
	PeriodStatusOpen:                 PeriodStatusClosed,
	PeriodStatusClosed:               PeriodStatusSnapshotted,
	PeriodStatusSnapshotted:          PeriodStatusObligationsGenerated,
	PeriodStatusObligationsGenerated: PeriodStatusPaymentWindow,
	PeriodStatusPaymentWindow:        PeriodStatusReconciled,
}

func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	want, ok := periodNext[s]
	return ok && want == next
}

// IsTerminal reports whether the period has finished its lifecycle.
func (s PeriodStatus) IsTerminal() bool {
	return s == PeriodStatusReconciled
}

// SettlementPeriod is a statistic interval [PeriodStart, PeriodEnd) with its
// own payment window and split ratios. Ratios are basis points and must sum
// to 10000 (SelfBps + L1Bps + L2Bps + PlatformBps).
type SettlementPeriod struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null" json:"period_end"`
	PayStart    time.Time    `gorm:"not null" json:"pay_start"`
	PayEnd      time.Time    `gorm:"not null" json:"pay_end"`
	SelfBps     int          `gorm:"not null" json:"self_bps"`
	L1Bps       int          `gorm:"not null" json:"l1_bps"`
	L2Bps       int          `gorm:"not null" json:"l2_bps"`
	PlatformBps int          `gorm:"not null" json:"platform_bps"`
	Status      PeriodStatus `gorm:"size:32;default:open;index" json:"status"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SettlementPeriod) TableName() string {
	return "settlement_periods"
}

// ValidateRatios checks the bps split adds up to a whole.
func (p *SettlementPeriod) ValidateRatios() bool {
	if p.SelfBps < 0 || p.L1Bps < 0 || p.L2Bps < 0 || p.PlatformBps < 0 {
		return false
	}
	return p.SelfBps+p.L1Bps+p.L2Bps+p.PlatformBps == 10000
}
