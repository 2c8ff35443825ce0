package business

import (
	"errors"
	"fmt"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"gorm.io/gorm"
)

// EarningInput is one collector row for a user's day.
type EarningInput struct {
	UserID          uint   `json:"user_id" binding:"required"`
	EnvID           uint   `json:"env_id"`
	StatDate        string `json:"stat_date" binding:"required"`
	CoinsTotal      int64  `json:"coins_total"`
	CoinsFromBox    int64  `json:"coins_from_box"`
	CoinsFromLook   int64  `json:"coins_from_look"`
	CoinsFromFood   int64  `json:"coins_from_food"`
	CoinsFromSearch int64  `json:"coins_from_search"`
}

// IngestEarnings upserts collector rows keyed on (user, env, stat date).
// Re-sending a day replaces that day's numbers, so the collector can retry
// freely before the period closes.
func IngestEarnings(inputs []EarningInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	count := 0
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			day, err := time.Parse("2006-01-02", in.StatDate)
			if err != nil {
				return fmt.Errorf("invalid stat_date %q: %v", in.StatDate, err)
			}
			if in.CoinsTotal < 0 {
				return fmt.Errorf("negative coins_total for user %d on %s", in.UserID, in.StatDate)
			}

			record := models.EarningRecord{
				UserID:          in.UserID,
				EnvID:           in.EnvID,
				StatDate:        day,
				CoinsTotal:      in.CoinsTotal,
				CoinsFromBox:    in.CoinsFromBox,
				CoinsFromLook:   in.CoinsFromLook,
				CoinsFromFood:   in.CoinsFromFood,
				CoinsFromSearch: in.CoinsFromSearch,
			}

			var existing models.EarningRecord
			err = tx.Where("user_id = ? AND env_id = ? AND stat_date = ?",
				in.UserID, in.EnvID, day).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				record.ID = existing.ID
				record.CreatedAt = existing.CreatedAt
				if err := tx.Save(&record).Error; err != nil {
					return err
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// EarningStats is a per-user aggregate over a date range.
type EarningStats struct {
	UserID          uint  `json:"user_id"`
	Days            int   `json:"days"`
	CoinsTotal      int64 `json:"coins_total"`
	CoinsFromBox    int64 `json:"coins_from_box"`
	CoinsFromLook   int64 `json:"coins_from_look"`
	CoinsFromFood   int64 `json:"coins_from_food"`
	CoinsFromSearch int64 `json:"coins_from_search"`
}

// UserEarningStats sums one user's earnings over [from, to).
func UserEarningStats(userID uint, from, to time.Time) (*EarningStats, error) {
	stats := EarningStats{UserID: userID}
	err := dbconfig.DB.Model(&models.EarningRecord{}).
		Select(`COUNT(DISTINCT stat_date) AS days,
			COALESCE(SUM(coins_total),0) AS coins_total,
			COALESCE(SUM(coins_from_box),0) AS coins_from_box,
			COALESCE(SUM(coins_from_look),0) AS coins_from_look,
			COALESCE(SUM(coins_from_food),0) AS coins_from_food,
			COALESCE(SUM(coins_from_search),0) AS coins_from_search`).
		Where("user_id = ? AND stat_date >= ? AND stat_date < ?", userID, from, to).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// UserEarnings lists one user's daily rows over [from, to), newest first.
func UserEarnings(userID uint, from, to time.Time) ([]models.EarningRecord, error) {
	var records []models.EarningRecord
	err := dbconfig.DB.
		Where("user_id = ? AND stat_date >= ? AND stat_date < ?", userID, from, to).
		Order("stat_date DESC, env_id").
		Find(&records).Error
	return records, err
}
