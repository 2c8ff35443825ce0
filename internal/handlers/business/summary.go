package business

import (
	"errors"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"
)

// WalletSummary is the settlement-center projection for one user: balances,
// own outstanding obligation, downline dues still blocking commission
// unlocks, and commission totals by state.
type WalletSummary struct {
	UserID         uint  `json:"user_id"`
	AvailableCoins int64 `json:"available_coins"`
	LockedCoins    int64 `json:"locked_coins"`

	CurrentPeriodID    *uint                   `json:"current_period_id"`
	ObligationDue      int64                   `json:"obligation_due"`
	ObligationStatus   models.ObligationStatus `json:"obligation_status,omitempty"`
	DownlineL1DueCoins int64                   `json:"downline_l1_due_coins"`
	DownlineL2DueCoins int64                   `json:"downline_l2_due_coins"`

	CommissionLockedCoins   int64 `json:"commission_locked_coins"`
	CommissionUnlockedCoins int64 `json:"commission_unlocked_coins"`
}

func sumDownlineDue(periodID, inviterID uint, level int) (int64, error) {
	col := "settlement_referral_snapshots.inviter_level1"
	if level == 2 {
		col = "settlement_referral_snapshots.inviter_level2"
	}
	var due int64
	err := dbconfig.DB.Model(&models.SettlementObligation{}).
		Select("COALESCE(SUM(settlement_obligations.amount_due),0)").
		Joins(`JOIN settlement_referral_snapshots
			ON settlement_referral_snapshots.period_id = settlement_obligations.period_id
			AND settlement_referral_snapshots.user_id = settlement_obligations.user_id`).
		Where("settlement_obligations.period_id = ?", periodID).
		Where(col+" = ?", inviterID).
		Where("settlement_obligations.status != ?", models.ObligationStatusConfirmed).
		Scan(&due).Error
	return due, err
}

func sumCommissionsByState(userID uint, state models.CommissionState) (int64, error) {
	var total int64
	err := dbconfig.DB.Model(&models.CommissionEntry{}).
		Select("COALESCE(SUM(amount_coins),0)").
		Where("beneficiary_id = ? AND state = ?", userID, state).
		Scan(&total).Error
	return total, err
}

// GetWalletSummary assembles the projection. Downline dues use the
// current period's frozen snapshot, so mid-period rebinds elsewhere never
// change whose payments gate this user's unlocks.
func GetWalletSummary(userID uint) (*WalletSummary, error) {
	wallet, err := WalletBalance(userID)
	if err != nil {
		return nil, err
	}
	s := &WalletSummary{
		UserID:         userID,
		AvailableCoins: wallet.AvailableCoins,
		LockedCoins:    wallet.LockedCoins,
	}

	if s.CommissionLockedCoins, err = sumCommissionsByState(userID, models.CommissionStateLocked); err != nil {
		return nil, err
	}
	if s.CommissionUnlockedCoins, err = sumCommissionsByState(userID, models.CommissionStateAvailable); err != nil {
		return nil, err
	}

	period, err := CurrentPeriod()
	if err != nil {
		return nil, err
	}
	if period == nil {
		return s, nil
	}
	s.CurrentPeriodID = &period.ID

	ob, err := GetObligation(period.ID, userID)
	switch {
	case err == nil:
		s.ObligationStatus = ob.Status
		if ob.Status != models.ObligationStatusConfirmed {
			s.ObligationDue = ob.AmountDue
		}
	case errors.Is(err, ErrSnapshotMissing):
		// no earnings this period, nothing owed
	default:
		return nil, err
	}

	if period.Status == models.PeriodStatusObligationsGenerated ||
		period.Status == models.PeriodStatusPaymentWindow {
		if s.DownlineL1DueCoins, err = sumDownlineDue(period.ID, userID, 1); err != nil {
			return nil, err
		}
		if s.DownlineL2DueCoins, err = sumDownlineDue(period.ID, userID, 2); err != nil {
			return nil, err
		}
	}
	return s, nil
}
