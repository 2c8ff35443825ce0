package models

import "time"

// ReferralSnapshot freezes one user's upline chain for one settlement
// period. Immutable once written; all obligation math for the period reads
// the snapshot, never the live user_referrals rows.
type ReferralSnapshot struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	PeriodID      uint      `gorm:"not null;uniqueIndex:idx_snapshot_period_user" json:"period_id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_snapshot_period_user" json:"user_id"`
	InviterLevel1 *uint     `gorm:"index" json:"inviter_level1"`
	InviterLevel2 *uint     `gorm:"index" json:"inviter_level2"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReferralSnapshot) TableName() string {
	return "settlement_referral_snapshots"
}

// SettlementIncome records how one user's period earnings were split.
// GrossCoins = SelfKeepCoins + L1CommissionCoins + L2CommissionCoins +
// PlatformDueCoins always holds; ResidualCoins is the truncation remainder
// folded into the payer's obligation and kept here for audit.
type SettlementIncome struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	PeriodID          uint      `gorm:"not null;uniqueIndex:idx_income_period_user" json:"period_id"`
	UserID            uint      `gorm:"not null;uniqueIndex:idx_income_period_user" json:"user_id"`
	GrossCoins        int64     `gorm:"not null;default:0" json:"gross_coins"`
	SelfKeepCoins     int64     `gorm:"not null;default:0" json:"self_keep_coins"`
	L1UserID          *uint     `json:"l1_user_id"`
	L2UserID          *uint     `json:"l2_user_id"`
	L1CommissionCoins int64     `gorm:"not null;default:0" json:"l1_commission_coins"`
	L2CommissionCoins int64     `gorm:"not null;default:0" json:"l2_commission_coins"`
	PlatformDueCoins  int64     `gorm:"not null;default:0" json:"platform_due_coins"`
	ResidualCoins     int64     `gorm:"not null;default:0" json:"residual_coins"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SettlementIncome) TableName() string {
	return "settlement_incomes"
}

// ObligationStatus is the payment lifecycle of one user's period obligation.
type ObligationStatus string

const (
	ObligationStatusUnpaid         ObligationStatus = "unpaid"
	ObligationStatusProofSubmitted ObligationStatus = "proof_submitted"
	ObligationStatusConfirmed      ObligationStatus = "confirmed"
	ObligationStatusRejected       ObligationStatus = "rejected"
)

func (s ObligationStatus) IsValid() bool {
	switch s {
	case ObligationStatusUnpaid, ObligationStatusProofSubmitted,
		ObligationStatusConfirmed, ObligationStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the obligation needs no further review.
// rejected is terminal for the submitted proof, not the debt: the user may
// submit again, which moves the row back to proof_submitted.
func (s ObligationStatus) IsTerminal() bool {
	return s == ObligationStatusConfirmed
}

var obligationNext = map[ObligationStatus][]ObligationStatus{
	ObligationStatusUnpaid:         {ObligationStatusProofSubmitted},
	ObligationStatusProofSubmitted: {ObligationStatusConfirmed, ObligationStatusRejected},
	ObligationStatusRejected:       {ObligationStatusProofSubmitted},
}

func (s ObligationStatus) CanTransitionTo(next ObligationStatus) bool {
	for _, allowed := range obligationNext[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SettlementObligation is the amount one user owes upward for one period.
// Exactly one row per (period, user), created at obligation generation.
type SettlementObligation struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	PeriodID      uint             `gorm:"not null;uniqueIndex:idx_obligation_period_user" json:"period_id"`
	UserID        uint             `gorm:"not null;uniqueIndex:idx_obligation_period_user" json:"user_id"`
	AmountDue     int64            `gorm:"not null;default:0" json:"amount_due"`
	Status        ObligationStatus `gorm:"size:32;default:unpaid;index" json:"status"`
	ProofURL      string           `gorm:"size:512" json:"proof_url"`
	ProofRemark   string           `gorm:"size:256" json:"proof_remark"`
	SubmittedAt   *time.Time       `json:"submitted_at"`
	ReviewedBy    *uint            `json:"reviewed_by"`
	ReviewedAt    *time.Time       `json:"reviewed_at"`
	RejectReason  string           `gorm:"size:256" json:"reject_reason"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SettlementObligation) TableName() string {
	return "settlement_obligations"
}

// CommissionState is locked until the source user's obligation is confirmed,
// then available. Never reversed.
type CommissionState string

const (
	CommissionStateLocked    CommissionState = "locked"
	CommissionStateAvailable CommissionState = "available"
)

// CommissionEntry credits a beneficiary for a downline source user's
// earnings. Level is the tier distance (1 or 2).
type CommissionEntry struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	PeriodID      uint            `gorm:"not null;index:idx_commission_period_source" json:"period_id"`
	SourceUserID  uint            `gorm:"not null;index:idx_commission_period_source" json:"source_user_id"`
	BeneficiaryID uint            `gorm:"not null;index" json:"beneficiary_id"`
	Level         int             `gorm:"not null" json:"level"`
	AmountCoins   int64           `gorm:"not null" json:"amount_coins"`
	State         CommissionState `gorm:"size:16;default:locked;index" json:"state"`
	UnlockedAt    *time.Time      `json:"unlocked_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (CommissionEntry) TableName() string {
	return "settlement_commissions"
}
