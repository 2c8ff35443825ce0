package models

import "time"

// UserRole distinguishes regular users from admins
type UserRole string

const (
	UserRoleRegular UserRole = "regular"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleRegular, UserRoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Username      string    `gorm:"size:64;uniqueIndex" json:"username"`
	Nickname      string    `gorm:"size:64" json:"nickname"`
	Role          UserRole  `gorm:"size:16;default:regular" json:"role"`
	Status        int       `gorm:"default:1" json:"status"`
	PayoutAccount string    `gorm:"size:128" json:"payout_account"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserReferral freezes a user's upline chain at registration time.
// inviter_level2 is the inviter's own level-1 inviter, denormalized here so
// the settlement snapshot can be taken with a single copy.
// 关系一经写入不再变更
type UserReferral struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	InviterLevel1 *uint     `gorm:"index" json:"inviter_level1"`
	InviterLevel2 *uint     `gorm:"index" json:"inviter_level2"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (UserReferral) TableName() string {
	return "user_referrals"
}
