package models

import "time"

// WalletAccount holds the materialized balance split for one user. Both
// columns are recomputable from wallet_ledger_entries and must stay equal to
// the sum of deltas at all times.
type WalletAccount struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AvailableCoins int64     `gorm:"not null;default:0" json:"available_coins"`
	LockedCoins    int64     `gorm:"not null;default:0" json:"locked_coins"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// LedgerKind classifies a wallet ledger entry.
type LedgerKind string

const (
	LedgerKindCommissionLock     LedgerKind = "commission_lock"
	LedgerKindCommissionUnlock   LedgerKind = "commission_unlock"
	LedgerKindWithdrawalReserve  LedgerKind = "withdrawal_reserve"
	LedgerKindWithdrawalRollback LedgerKind = "withdrawal_rollback"
	LedgerKindWithdrawalPayout   LedgerKind = "withdrawal_payout"
	LedgerKindRechargeCredit     LedgerKind = "recharge_credit"
)

func (k LedgerKind) IsValid() bool {
	switch k {
	case LedgerKindCommissionLock, LedgerKindCommissionUnlock,
		LedgerKindWithdrawalReserve, LedgerKindWithdrawalRollback,
		LedgerKindWithdrawalPayout, LedgerKindRechargeCredit:
		return true
	default:
		return false
	}
}

// WalletLedgerEntry is append-only. Rows are never updated or deleted; the
// storage layer exposes no mutation path for them.
// 只追加，不修改，不删除
type WalletLedgerEntry struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	PeriodID       *uint      `gorm:"index" json:"period_id"`
	Kind           LedgerKind `gorm:"size:32;not null;index" json:"kind"`
	DeltaAvailable int64      `gorm:"not null;default:0" json:"delta_available"`
	DeltaLocked    int64      `gorm:"not null;default:0" json:"delta_locked"`
	RefID          string     `gorm:"size:64;index" json:"ref_id"`
	SourceUserID   *uint      `json:"source_user_id"`
	Remark         string     `gorm:"size:256" json:"remark"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletLedgerEntry) TableName() string {
	return "wallet_ledger_entries"
}
