package models

import "time"

// EarningRecord is a per-user, per-day coin earnings row produced by the
// external collector. Read-only input to the obligation calculator.
type EarningRecord struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	EnvID           uint      `gorm:"index" json:"env_id"`
	StatDate        time.Time `gorm:"index;not null" json:"stat_date"`
	CoinsTotal      int64     `gorm:"not null;default:0" json:"coins_total"`
	CoinsFromBox    int64     `gorm:"not null;default:0" json:"coins_from_box"`
	CoinsFromLook   int64     `gorm:"not null;default:0" json:"coins_from_look"`
	CoinsFromFood   int64     `gorm:"not null;default:0" json:"coins_from_food"`
	CoinsFromSearch int64     `gorm:"not null;default:0" json:"coins_from_search"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EarningRecord) TableName() string {
	return "earning_records"
}
