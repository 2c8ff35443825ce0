package business

import (
	"errors"
	"fmt"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func withdrawRef(id uint) string {
	return fmt.Sprintf("withdraw:%d", id)
}

// CreateWithdraw reserves the requested amount out of the user's available
// balance and files a pending request. The reserve and the request row are
// written in one transaction, so no request can exist without its deduction.
func CreateWithdraw(userID uint, amount int64, method, accountInfo string) (*models.WithdrawRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdraw amount must be positive", ErrInsufficientBalance)
	}

	unlock := lockWallets(userID)
	defer unlock()

	var req models.WithdrawRequest
	var committed *models.WalletLedgerEntry
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		wallet, err := getOrCreateWallet(tx, userID)
		if err != nil {
			return err
		}
		if wallet.AvailableCoins < amount {
			return fmt.Errorf("%w: available %d, requested %d",
				ErrInsufficientBalance, wallet.AvailableCoins, amount)
		}

		req = models.WithdrawRequest{
			UserID:      userID,
			AmountCoins: amount,
			Status:      models.WithdrawStatusPending,
			Method:      method,
			AccountInfo: accountInfo,
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}

		committed, err = applyLedger(tx, LedgerAppend{
			UserID:         userID,
			Kind:           models.LedgerKindWithdrawalReserve,
			DeltaAvailable: -amount,
			RefID:          withdrawRef(req.ID),
			Remark:         fmt.Sprintf("withdraw request %d reserved", req.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	notifyLedgerListeners(*committed)
	logger.Infof("> 用户 %d 发起提现 %d coins, 申请单 %d", userID, amount, req.ID)
	publishEvent("withdraw.created", req)
	return &req, nil
}

func getWithdraw(tx *gorm.DB, requestID uint) (*models.WithdrawRequest, error) {
	var req models.WithdrawRequest
	err := tx.First(&req, requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("withdraw request %d not found", requestID)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetWithdraw returns one request.
func GetWithdraw(requestID uint) (*models.WithdrawRequest, error) {
	return getWithdraw(dbconfig.DB, requestID)
}

// ListWithdraws lists a user's requests newest first; userID 0 lists all.
func ListWithdraws(userID uint, status models.WithdrawStatus, limit, offset int) ([]models.WithdrawRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := dbconfig.DB.Model(&models.WithdrawRequest{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []models.WithdrawRequest
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&reqs).Error
	return reqs, err
}

// transitionWithdraw moves a request between states with a guarded update
// and, when refund is set, restores the reserved amount in the same
// transaction. The rollback mirrors the reserve exactly, so cancel or
// reject leaves the wallet as if the request never happened.
func transitionWithdraw(requestID uint, from, to models.WithdrawStatus, processedBy uint, reason string, refund bool, kind models.LedgerKind) (*models.WithdrawRequest, error) {
	req, err := getWithdraw(dbconfig.DB, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == to {
		return nil, fmt.Errorf("%w: withdraw request %d already %s", ErrDuplicateOperation, requestID, to)
	}
	if req.Status != from || !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: withdraw request %d is %s, cannot become %s",
			ErrInvalidStateTransition, requestID, req.Status, to)
	}

	unlock := lockWallets(req.UserID)
	defer unlock()

	var committed *models.WalletLedgerEntry
	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{"status": to}
		if processedBy != 0 {
			updates["processed_by"] = processedBy
			updates["processed_at"] = now
		}
		if reason != "" {
			updates["reject_reason"] = reason
		}
		res := tx.Model(&models.WithdrawRequest{}).
			Where("id = ? AND status = ?", requestID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: withdraw request %d changed concurrently",
				ErrInvalidStateTransition, requestID)
		}

		delta := int64(0)
		if refund {
			delta = req.AmountCoins
		}
		committed, err = applyLedger(tx, LedgerAppend{
			UserID:         req.UserID,
			Kind:           kind,
			DeltaAvailable: delta,
			RefID:          withdrawRef(req.ID),
			Remark:         fmt.Sprintf("withdraw request %d %s", req.ID, to),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	notifyLedgerListeners(*committed)
	publishEvent("withdraw."+string(to), map[string]interface{}{
		"request_id": requestID, "user_id": req.UserID, "amount_coins": req.AmountCoins,
	})
	return getWithdraw(dbconfig.DB, requestID)
}

// CancelWithdraw lets the owner withdraw a still pending request; the
// reserved coins come back in full.
func CancelWithdraw(userID, requestID uint) (*models.WithdrawRequest, error) {
	req, err := getWithdraw(dbconfig.DB, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, fmt.Errorf("%w: request %d does not belong to user %d",
			ErrInvalidStateTransition, requestID, userID)
	}
	return transitionWithdraw(requestID, models.WithdrawStatusPending, models.WithdrawStatusCancelled,
		0, "", true, models.LedgerKindWithdrawalRollback)
}

// ApproveWithdraw accepts a pending request for payout. No balance moves;
// the reserve from creation stays in place until payment.
func ApproveWithdraw(adminID, requestID uint) (*models.WithdrawRequest, error) {
	req, err := getWithdraw(dbconfig.DB, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == models.WithdrawStatusApproved {
		return nil, fmt.Errorf("%w: withdraw request %d already approved", ErrDuplicateOperation, requestID)
	}
	if !req.Status.CanTransitionTo(models.WithdrawStatusApproved) {
		return nil, fmt.Errorf("%w: withdraw request %d is %s",
			ErrInvalidStateTransition, requestID, req.Status)
	}

	now := time.Now()
	res := dbconfig.DB.Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ?", requestID, models.WithdrawStatusPending).
		Updates(map[string]interface{}{
			"status":       models.WithdrawStatusApproved,
			"processed_by": adminID,
			"processed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: withdraw request %d changed concurrently",
			ErrInvalidStateTransition, requestID)
	}

	publishEvent("withdraw.approved", map[string]interface{}{
		"request_id": requestID, "user_id": req.UserID,
	})
	return getWithdraw(dbconfig.DB, requestID)
}

// RejectWithdraw refuses a pending or approved request and restores the
// reserved amount.
func RejectWithdraw(adminID, requestID uint, reason string) (*models.WithdrawRequest, error) {
	req, err := getWithdraw(dbconfig.DB, requestID)
	if err != nil {
		return nil, err
	}
	return transitionWithdraw(requestID, req.Status, models.WithdrawStatusRejected,
		adminID, reason, true, models.LedgerKindWithdrawalRollback)
}

// PayWithdraw marks an approved request as paid out. The deduction already
// happened at reservation, so the ledger entry carries zero deltas and only
// records the payout moment.
func PayWithdraw(adminID, requestID uint) (*models.WithdrawRequest, error) {
	req, err := transitionWithdraw(requestID, models.WithdrawStatusApproved, models.WithdrawStatusPaid,
		adminID, "", false, models.LedgerKindWithdrawalPayout)
	if err != nil {
		return nil, err
	}
	logger.Infof("> 提现单 %d 打款完成, 用户 %d 金额 %d coins", req.ID, req.UserID, req.AmountCoins)
	return req, nil
}
