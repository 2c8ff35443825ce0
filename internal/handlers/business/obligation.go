package business

import (
	"fmt"
	"sort"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GenerateResult summarizes one obligation generation run.
type GenerateResult struct {
	PeriodID         uint  `json:"period_id"`
	UserCount        int   `json:"user_count"`
	ObligationCount  int   `json:"obligation_count"`
	CommissionCount  int   `json:"commission_count"`
	GrossCoins       int64 `json:"gross_coins"`
	CommissionCoins  int64 `json:"commission_coins"`
	PlatformDueCoins int64 `json:"platform_due_coins"`
}

// periodAggregates sums earning_records per user over the statistic
// interval [start, end).
func periodAggregates(tx *gorm.DB, period *models.SettlementPeriod) (map[uint]int64, error) {
	rows := []struct {
		UserID uint
		Total  int64
	}{}
	err := tx.Model(&models.EarningRecord{}).
		Select("user_id, COALESCE(SUM(coins_total),0) AS total").
		Where("stat_date >= ? AND stat_date < ?", period.PeriodStart, period.PeriodEnd).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	agg := make(map[uint]int64, len(rows))
	for _, r := range rows {
		if r.Total > 0 {
			agg[r.UserID] = r.Total
		}
	}
	return agg, nil
}

// GenerateObligations computes the period's incomes, commissions and
// obligations from the earnings aggregate and the frozen snapshot.
//
// For each user with gross earnings E the bps split assigns a self-retained
// share, tier commissions and the platform share. Tier shares without a
// snapshot referrer accrue to platform due instead of being credited.
// The user's own obligation is the platform share plus the truncation
// residual, so the closure E = self + credited commissions + platform due
// holds coin for coin. Commission credits are written locked and
// immediately reflected in the beneficiary's locked balance.
//
// Recomputation for an already generated period is rejected with
// ErrDuplicateOperation; nothing is re-credited.
func GenerateObligations(periodID uint) (*GenerateResult, error) {
	period, err := GetPeriod(periodID)
	if err != nil {
		return nil, err
	}

	switch period.Status {
	case models.PeriodStatusOpen, models.PeriodStatusClosed:
		return nil, fmt.Errorf("%w: period %d is %s", ErrSnapshotMissing, periodID, period.Status)
	case models.PeriodStatusSnapshotted:
		// proceed
	default:
		return nil, fmt.Errorf("%w: obligations for period %d already generated",
			ErrDuplicateOperation, periodID)
	}

	// Snapshot rows and aggregates are read up front; the snapshot is
	// immutable and period state is re-guarded inside the transaction.
	snapshots, err := PeriodSnapshots(periodID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: period %d has no snapshot rows", ErrSnapshotMissing, periodID)
	}
	snapByUser := make(map[uint]models.ReferralSnapshot, len(snapshots))
	for _, s := range snapshots {
		snapByUser[s.UserID] = s
	}

	agg, err := periodAggregates(dbconfig.DB, period)
	if err != nil {
		return nil, err
	}

	// Deterministic order keeps reruns and audits comparable.
	userIDs := make([]uint, 0, len(agg))
	beneficiaries := make([]uint, 0)
	for uid := range agg {
		userIDs = append(userIDs, uid)
		if snap, ok := snapByUser[uid]; ok {
			if snap.InviterLevel1 != nil {
				beneficiaries = append(beneficiaries, *snap.InviterLevel1)
			}
			if snap.InviterLevel2 != nil {
				beneficiaries = append(beneficiaries, *snap.InviterLevel2)
			}
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	unlockAll := lockWallets(beneficiaries...)
	defer unlockAll()

	result := &GenerateResult{PeriodID: periodID}
	var committed []models.WalletLedgerEntry

	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.SettlementIncome{}).
			Where("period_id = ?", periodID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: incomes for period %d already exist", ErrDuplicateOperation, periodID)
		}

		for _, uid := range userIDs {
			gross := agg[uid]
			split, err := splitEarnings(gross, period)
			if err != nil {
				return err
			}

			snap := snapByUser[uid]
			income := models.SettlementIncome{
				PeriodID:      periodID,
				UserID:        uid,
				GrossCoins:    gross,
				SelfKeepCoins: split.SelfKeep,
				L1UserID:      snap.InviterLevel1,
				L2UserID:      snap.InviterLevel2,
				ResidualCoins: split.Residual,
			}

			if snap.InviterLevel1 != nil && split.L1 > 0 {
				income.L1CommissionCoins = split.L1
				if err := createCommissionTx(tx, periodID, uid, *snap.InviterLevel1, 1, split.L1, &committed); err != nil {
					return err
				}
				result.CommissionCount++
				result.CommissionCoins += split.L1
			}
			if snap.InviterLevel2 != nil && split.L2 > 0 {
				income.L2CommissionCoins = split.L2
				if err := createCommissionTx(tx, periodID, uid, *snap.InviterLevel2, 2, split.L2, &committed); err != nil {
					return err
				}
				result.CommissionCount++
				result.CommissionCoins += split.L2
			}

			income.PlatformDueCoins = gross - income.SelfKeepCoins -
				income.L1CommissionCoins - income.L2CommissionCoins
			if err := tx.Create(&income).Error; err != nil {
				return err
			}

			obligation := models.SettlementObligation{
				PeriodID:  periodID,
				UserID:    uid,
				AmountDue: split.Platform + split.Residual,
				Status:    models.ObligationStatusUnpaid,
			}
			if err := tx.Create(&obligation).Error; err != nil {
				return err
			}

			result.UserCount++
			result.ObligationCount++
			result.GrossCoins += gross
			result.PlatformDueCoins += income.PlatformDueCoins
		}

		return advancePeriodTx(tx, periodID, models.PeriodStatusSnapshotted,
			models.PeriodStatusObligationsGenerated)
	})
	if err != nil {
		return nil, err
	}

	for _, e := range committed {
		notifyLedgerListeners(e)
	}
	logger.Infof("> 结算期 %d 生成完成: %d 用户, %d 条分成, 总收益 %d coins",
		periodID, result.UserCount, result.CommissionCount, result.GrossCoins)
	publishEvent("period.obligations_generated", result)
	return result, nil
}

// createCommissionTx writes one locked commission entry plus the matching
// commission_lock ledger append crediting the beneficiary's locked balance.
func createCommissionTx(tx *gorm.DB, periodID, sourceUserID, beneficiaryID uint, level int, amount int64, committed *[]models.WalletLedgerEntry) error {
	entry := models.CommissionEntry{
		PeriodID:      periodID,
		SourceUserID:  sourceUserID,
		BeneficiaryID: beneficiaryID,
		Level:         level,
		AmountCoins:   amount,
		State:         models.CommissionStateLocked,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	pid := periodID
	src := sourceUserID
	ledger, err := applyLedger(tx, LedgerAppend{
		UserID:       beneficiaryID,
		PeriodID:     &pid,
		Kind:         models.LedgerKindCommissionLock,
		DeltaLocked:  amount,
		RefID:        uuid.NewString(),
		SourceUserID: &src,
		Remark:       fmt.Sprintf("L%d commission from downline %d", level, sourceUserID),
	})
	if err != nil {
		return err
	}
	*committed = append(*committed, *ledger)
	return nil
}

// PeriodIncomes lists the audit rows for one period.
func PeriodIncomes(periodID uint) ([]models.SettlementIncome, error) {
	var incomes []models.SettlementIncome
	err := dbconfig.DB.Where("period_id = ?", periodID).Order("user_id").Find(&incomes).Error
	return incomes, err
}
