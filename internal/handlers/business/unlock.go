package business

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func getObligation(tx *gorm.DB, periodID, userID uint) (*models.SettlementObligation, error) {
	var ob models.SettlementObligation
	err := tx.Where("period_id = ? AND user_id = ?", periodID, userID).First(&ob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no obligation for user %d in period %d", ErrSnapshotMissing, userID, periodID)
	}
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

// GetObligation returns one user's obligation for a period.
func GetObligation(periodID, userID uint) (*models.SettlementObligation, error) {
	return getObligation(dbconfig.DB, periodID, userID)
}

// ListObligations returns a period's obligations, optionally filtered by status.
func ListObligations(periodID uint, status models.ObligationStatus) ([]models.SettlementObligation, error) {
	q := dbconfig.DB.Where("period_id = ?", periodID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var obs []models.SettlementObligation
	err := q.Order("user_id").Find(&obs).Error
	return obs, err
}

// SubmitObligationProof records a payment voucher for review. Resubmission
// after a rejection is allowed; a confirmed obligation is final.
func SubmitObligationProof(periodID, userID uint, proofURL, remark string) (*models.SettlementObligation, error) {
	period, err := GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if period.Status != models.PeriodStatusPaymentWindow {
		return nil, fmt.Errorf("%w: period %d is %s, payment window not open",
			ErrInvalidStateTransition, periodID, period.Status)
	}

	ob, err := getObligation(dbconfig.DB, periodID, userID)
	if err != nil {
		return nil, err
	}
	if !ob.Status.CanTransitionTo(models.ObligationStatusProofSubmitted) {
		return nil, fmt.Errorf("%w: obligation is %s", ErrInvalidStateTransition, ob.Status)
	}

	now := time.Now()
	res := dbconfig.DB.Model(&models.SettlementObligation{}).
		Where("id = ? AND status = ?", ob.ID, ob.Status).
		Updates(map[string]interface{}{
			"status":       models.ObligationStatusProofSubmitted,
			"proof_url":    proofURL,
			"proof_remark": remark,
			"submitted_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: obligation changed concurrently", ErrInvalidStateTransition)
	}

	publishEvent("obligation.proof_submitted", map[string]interface{}{
		"period_id": periodID, "user_id": userID,
	})
	return getObligation(dbconfig.DB, periodID, userID)
}

// UnlockResult describes the commissions released by one confirmation.
type UnlockResult struct {
	PeriodID      uint  `json:"period_id"`
	SourceUserID  uint  `json:"source_user_id"`
	EntryCount    int   `json:"entry_count"`
	UnlockedCoins int64 `json:"unlocked_coins"`
}

// ConfirmObligation marks a submitted proof as paid and releases every
// locked commission derived from this payer's earnings in the period.
// Each beneficiary gets one unlock ledger append moving the summed amount
// from locked to available. Confirming twice is rejected.
func ConfirmObligation(periodID, sourceUserID, adminID uint) (*UnlockResult, error) {
	ob, err := getObligation(dbconfig.DB, periodID, sourceUserID)
	if err != nil {
		return nil, err
	}
	if ob.Status == models.ObligationStatusConfirmed {
		return nil, fmt.Errorf("%w: obligation already confirmed", ErrDuplicateOperation)
	}
	if !ob.Status.CanTransitionTo(models.ObligationStatusConfirmed) {
		return nil, fmt.Errorf("%w: obligation is %s", ErrInvalidStateTransition, ob.Status)
	}

	var pending []models.CommissionEntry
	err = dbconfig.DB.Where("period_id = ? AND source_user_id = ? AND state = ?",
		periodID, sourceUserID, models.CommissionStateLocked).Find(&pending).Error
	if err != nil {
		return nil, err
	}

	beneficiaries := make([]uint, 0, len(pending))
	byBeneficiary := make(map[uint]int64)
	for _, c := range pending {
		if _, seen := byBeneficiary[c.BeneficiaryID]; !seen {
			beneficiaries = append(beneficiaries, c.BeneficiaryID)
		}
		byBeneficiary[c.BeneficiaryID] += c.AmountCoins
	}
	sort.Slice(beneficiaries, func(i, j int) bool { return beneficiaries[i] < beneficiaries[j] })

	unlockAll := lockWallets(beneficiaries...)
	defer unlockAll()

	result := &UnlockResult{PeriodID: periodID, SourceUserID: sourceUserID}
	var committed []models.WalletLedgerEntry

	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.SettlementObligation{}).
			Where("id = ? AND status = ?", ob.ID, ob.Status).
			Updates(map[string]interface{}{
				"status":      models.ObligationStatusConfirmed,
				"reviewed_by": adminID,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: obligation changed concurrently", ErrDuplicateOperation)
		}

		for _, bid := range beneficiaries {
			sum := byBeneficiary[bid]
			upd := tx.Model(&models.CommissionEntry{}).
				Where("period_id = ? AND source_user_id = ? AND beneficiary_id = ? AND state = ?",
					periodID, sourceUserID, bid, models.CommissionStateLocked).
				Updates(map[string]interface{}{
					"state":       models.CommissionStateAvailable,
					"unlocked_at": now,
				})
			if upd.Error != nil {
				return upd.Error
			}
			result.EntryCount += int(upd.RowsAffected)

			pid := periodID
			src := sourceUserID
			ledger, err := applyLedger(tx, LedgerAppend{
				UserID:         bid,
				PeriodID:       &pid,
				Kind:           models.LedgerKindCommissionUnlock,
				DeltaAvailable: sum,
				DeltaLocked:    -sum,
				RefID:          uuid.NewString(),
				SourceUserID:   &src,
				Remark:         fmt.Sprintf("downline %d settled period %d", sourceUserID, periodID),
			})
			if err != nil {
				return err
			}
			committed = append(committed, *ledger)
			result.UnlockedCoins += sum
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range committed {
		notifyLedgerListeners(e)
	}
	logger.Infof("> 用户 %d 结算期 %d 缴清确认, 解锁分成 %d coins (%d 条)",
		sourceUserID, periodID, result.UnlockedCoins, result.EntryCount)
	publishEvent("obligation.confirmed", result)
	return result, nil
}

// RejectObligation sends a submitted proof back with a reason. Commissions
// sourced from this payer stay locked.
func RejectObligation(periodID, sourceUserID, adminID uint, reason string) (*models.SettlementObligation, error) {
	ob, err := getObligation(dbconfig.DB, periodID, sourceUserID)
	if err != nil {
		return nil, err
	}
	if !ob.Status.CanTransitionTo(models.ObligationStatusRejected) {
		return nil, fmt.Errorf("%w: obligation is %s", ErrInvalidStateTransition, ob.Status)
	}

	now := time.Now()
	res := dbconfig.DB.Model(&models.SettlementObligation{}).
		Where("id = ? AND status = ?", ob.ID, ob.Status).
		Updates(map[string]interface{}{
			"status":        models.ObligationStatusRejected,
			"reviewed_by":   adminID,
			"reviewed_at":   now,
			"reject_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: obligation changed concurrently", ErrInvalidStateTransition)
	}

	publishEvent("obligation.rejected", map[string]interface{}{
		"period_id": periodID, "user_id": sourceUserID, "reason": reason,
	})
	return getObligation(dbconfig.DB, periodID, sourceUserID)
}
