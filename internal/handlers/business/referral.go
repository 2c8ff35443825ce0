package business

import (
	"errors"
	"fmt"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BindReferral attaches a user under an inviter. The level 2 ancestor is
// derived from the inviter's own level 1 at bind time. A user's relation is
// written once; rebinding, self-invites and cycles are rejected.
func BindReferral(userID, inviterID uint) (*models.UserReferral, error) {
	if userID == inviterID {
		return nil, fmt.Errorf("%w: user %d cannot invite themselves", ErrInvalidStateTransition, userID)
	}

	var existing models.UserReferral
	err := dbconfig.DB.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: user %d already bound to inviter", ErrDuplicateOperation, userID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var inviter models.User
	if err := dbconfig.DB.First(&inviter, inviterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inviter %d not found", inviterID)
		}
		return nil, err
	}

	rel := models.UserReferral{UserID: userID, InviterLevel1: &inviterID}
	var inviterRel models.UserReferral
	err = dbconfig.DB.Where("user_id = ?", inviterID).First(&inviterRel).Error
	if err == nil && inviterRel.InviterLevel1 != nil {
		if *inviterRel.InviterLevel1 == userID {
			return nil, fmt.Errorf("%w: binding user %d under %d would form a cycle",
				ErrInvalidStateTransition, userID, inviterID)
		}
		rel.InviterLevel2 = inviterRel.InviterLevel1
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := dbconfig.DB.Create(&rel).Error; err != nil {
		return nil, err
	}
	logger.Infof("> 用户 %d 绑定上级 %d", userID, inviterID)
	return &rel, nil
}

// GetReferral returns the user's relation row, or nil if never bound.
func GetReferral(userID uint) (*models.UserReferral, error) {
	var rel models.UserReferral
	err := dbconfig.DB.Where("user_id = ?", userID).First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// InviteSummary is one downline row of MyInvites.
type InviteSummary struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Level    int    `json:"level"`
}

// MyInvites lists the user's direct and second-level downline.
func MyInvites(userID uint) ([]InviteSummary, error) {
	var out []InviteSummary
	err := dbconfig.DB.Model(&models.UserReferral{}).
		Select(`user_referrals.user_id, users.username, users.nickname,
			CASE WHEN user_referrals.inviter_level1 = ? THEN 1 ELSE 2 END AS level`, userID).
		Joins("JOIN users ON users.id = user_referrals.user_id").
		Where("user_referrals.inviter_level1 = ? OR user_referrals.inviter_level2 = ?", userID, userID).
		Order("level, user_referrals.user_id").
		Scan(&out).Error
	return out, err
}

// ReferralChain returns the user plus their level 1 and level 2 ancestors.
func ReferralChain(userID uint) ([]models.User, error) {
	ids := []uint{userID}
	rel, err := GetReferral(userID)
	if err != nil {
		return nil, err
	}
	if rel != nil {
		if rel.InviterLevel1 != nil {
			ids = append(ids, *rel.InviterLevel1)
		}
		if rel.InviterLevel2 != nil {
			ids = append(ids, *rel.InviterLevel2)
		}
	}

	var users []models.User
	if err := dbconfig.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	// preserve chain order: self, L1, L2
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	chain := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			chain = append(chain, u)
		}
	}
	return chain, nil
}
