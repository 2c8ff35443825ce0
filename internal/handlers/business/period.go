package business

import (
	"fmt"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreatePeriodInput carries the admin's period definition.
type CreatePeriodInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	PayStart    time.Time
	PayEnd      time.Time
	SelfBps     int
	L1Bps       int
	L2Bps       int
	PlatformBps int
}

func (in CreatePeriodInput) validate() error {
	if !in.PeriodStart.Before(in.PeriodEnd) {
		return fmt.Errorf("%w: period_start must precede period_end", ErrInvalidStateTransition)
	}
	if in.PayStart.After(in.PayEnd) {
		return fmt.Errorf("%w: pay_start must not follow pay_end", ErrInvalidStateTransition)
	}
	p := models.SettlementPeriod{
		SelfBps: in.SelfBps, L1Bps: in.L1Bps, L2Bps: in.L2Bps, PlatformBps: in.PlatformBps,
	}
	if !p.ValidateRatios() {
		return fmt.Errorf("%w: bps ratios must be non-negative and sum to 10000", ErrInvalidStateTransition)
	}
	return nil
}

// CreatePeriod opens a new settlement period. At most one non-reconciled
// period may exist; creating over an identical interval returns the
// existing row unchanged.
func CreatePeriod(in CreatePeriodInput) (*models.SettlementPeriod, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	var period models.SettlementPeriod
	created := false
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("period_start = ? AND period_end = ?", in.PeriodStart, in.PeriodEnd).
			First(&period).Error
		if err == nil {
			return nil // idempotent create
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var active int64
		if err := tx.Model(&models.SettlementPeriod{}).
			Where("status <> ?", models.PeriodStatusReconciled).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: another settlement period is still in progress", ErrInvalidStateTransition)
		}

		period = models.SettlementPeriod{
			PeriodStart: in.PeriodStart,
			PeriodEnd:   in.PeriodEnd,
			PayStart:    in.PayStart,
			PayEnd:      in.PayEnd,
			SelfBps:     in.SelfBps,
			L1Bps:       in.L1Bps,
			L2Bps:       in.L2Bps,
			PlatformBps: in.PlatformBps,
			Status:      models.PeriodStatusOpen,
		}
		created = true
		return tx.Create(&period).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &period, created, nil
}

// advancePeriodTx moves a period from -> to with a guarded update. Losing a
// concurrent race surfaces as ErrInvalidStateTransition instead of a silent
// double transition.
func advancePeriodTx(tx *gorm.DB, periodID uint, from, to models.PeriodStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: period %d cannot move %s -> %s", ErrInvalidStateTransition, periodID, from, to)
	}
	res := tx.Model(&models.SettlementPeriod{}).
		Where("id = ? AND status = ?", periodID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: period %d is no longer in state %s", ErrInvalidStateTransition, periodID, from)
	}
	return nil
}

// GetPeriod loads one period.
func GetPeriod(periodID uint) (*models.SettlementPeriod, error) {
	var period models.SettlementPeriod
	if err := dbconfig.DB.First(&period, periodID).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

// CurrentPeriod returns the single non-reconciled period, or nil.
func CurrentPeriod() (*models.SettlementPeriod, error) {
	var period models.SettlementPeriod
	err := dbconfig.DB.Where("status <> ?", models.PeriodStatusReconciled).
		Order("id DESC").First(&period).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// ClosePeriod ends the statistic interval: open -> closed.
func ClosePeriod(periodID uint) (*models.SettlementPeriod, error) {
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var period models.SettlementPeriod
		if err := tx.First(&period, periodID).Error; err != nil {
			return err
		}
		return advancePeriodTx(tx, periodID, period.Status, models.PeriodStatusClosed)
	})
	if err != nil {
		return nil, err
	}
	return GetPeriod(periodID)
}

// OpenPaymentWindow moves obligations_generated -> payment_window. From
// here users may submit payment proof until PayEnd.
func OpenPaymentWindow(periodID uint) (*models.SettlementPeriod, error) {
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var period models.SettlementPeriod
		if err := tx.First(&period, periodID).Error; err != nil {
			return err
		}
		return advancePeriodTx(tx, periodID, period.Status, models.PeriodStatusPaymentWindow)
	})
	if err != nil {
		return nil, err
	}
	publishEvent("period.payment_window", map[string]uint{"period_id": periodID})
	return GetPeriod(periodID)
}

// ReconcileReport summarizes what is still outstanding when a period is
// reconciled. Unpaid obligations past the deadline are reported, never
// auto-penalized; that policy hook stays with the admin.
type ReconcileReport struct {
	Period            *models.SettlementPeriod      `json:"period"`
	UnpaidObligations []models.SettlementObligation `json:"unpaid_obligations"`
	DeadlinePassed    bool                          `json:"deadline_passed"`
}

// ReconcilePeriod closes the payment window. Allowed once every obligation
// is settled, or once the deadline has passed regardless.
func ReconcilePeriod(periodID uint, now time.Time) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var period models.SettlementPeriod
		if err := tx.First(&period, periodID).Error; err != nil {
			return err
		}

		var outstanding []models.SettlementObligation
		if err := tx.Where("period_id = ? AND status IN ?", periodID,
			[]models.ObligationStatus{models.ObligationStatusUnpaid, models.ObligationStatusProofSubmitted, models.ObligationStatusRejected}).
			Find(&outstanding).Error; err != nil {
			return err
		}

		report.DeadlinePassed = now.After(period.PayEnd)
		if len(outstanding) > 0 && !report.DeadlinePassed {
			return fmt.Errorf("%w: %d obligations still outstanding before deadline",
				ErrInvalidStateTransition, len(outstanding))
		}

		if err := advancePeriodTx(tx, periodID, period.Status, models.PeriodStatusReconciled); err != nil {
			return err
		}
		report.UnpaidObligations = outstanding
		return nil
	})
	if err != nil {
		return nil, err
	}

	period, err := GetPeriod(periodID)
	if err != nil {
		return nil, err
	}
	report.Period = period

	if len(report.UnpaidObligations) > 0 {
		logger.Warnf("> 结算期 %d 截止后仍有 %d 条未缴清应缴", periodID, len(report.UnpaidObligations))
	}
	publishEvent("period.reconciled", map[string]interface{}{
		"period_id":       periodID,
		"unpaid_count":    len(report.UnpaidObligations),
		"deadline_passed": report.DeadlinePassed,
	})
	return report, nil
}

// ListPeriods returns all periods newest first.
func ListPeriods() ([]models.SettlementPeriod, error) {
	var periods []models.SettlementPeriod
	err := dbconfig.DB.Order("id DESC").Find(&periods).Error
	return periods, err
}
