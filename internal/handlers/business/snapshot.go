package business

import (
	"fmt"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SnapshotPeriod freezes the referrer graph for one period: one row per
// user, copied from user_referrals in a single transaction, then the period
// advances closed -> snapshotted. Users without a referral row still get a
// snapshot row with empty inviters so obligation math never falls back to
// the live graph.
//
// Re-invoking for an already snapshotted period changes nothing and returns
// the existing rows together with ErrDuplicateOperation.
func SnapshotPeriod(periodID uint) ([]models.ReferralSnapshot, error) {
	var snapshots []models.ReferralSnapshot

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var period models.SettlementPeriod
		if err := tx.First(&period, periodID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.ReferralSnapshot{}).
			Where("period_id = ?", periodID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			if err := tx.Where("period_id = ?", periodID).Find(&snapshots).Error; err != nil {
				return err
			}
			return ErrDuplicateOperation
		}

		if period.Status != models.PeriodStatusClosed {
			return fmt.Errorf("%w: period %d is %s, snapshot requires closed",
				ErrInvalidStateTransition, periodID, period.Status)
		}

		var users []models.User
		if err := tx.Find(&users).Error; err != nil {
			return err
		}

		var referrals []models.UserReferral
		if err := tx.Find(&referrals).Error; err != nil {
			return err
		}
		byUser := make(map[uint]models.UserReferral, len(referrals))
		for _, r := range referrals {
			byUser[r.UserID] = r
		}

		snapshots = make([]models.ReferralSnapshot, 0, len(users))
		for _, u := range users {
			snap := models.ReferralSnapshot{PeriodID: periodID, UserID: u.ID}
			if r, ok := byUser[u.ID]; ok {
				snap.InviterLevel1 = r.InviterLevel1
				snap.InviterLevel2 = r.InviterLevel2
			}
			snapshots = append(snapshots, snap)
		}
		if len(snapshots) > 0 {
			if err := tx.Create(&snapshots).Error; err != nil {
				return err
			}
		}

		return advancePeriodTx(tx, periodID, period.Status, models.PeriodStatusSnapshotted)
	})

	if err == ErrDuplicateOperation {
		return snapshots, ErrDuplicateOperation
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("> 结算期 %d 关系快照完成，共 %d 条", periodID, len(snapshots))
	return snapshots, nil
}

// PeriodSnapshots returns the frozen rows for one period.
func PeriodSnapshots(periodID uint) ([]models.ReferralSnapshot, error) {
	var snapshots []models.ReferralSnapshot
	err := dbconfig.DB.Where("period_id = ?", periodID).Find(&snapshots).Error
	return snapshots, err
}
