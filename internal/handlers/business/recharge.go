package business

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const rechargeOrderTTL = 30 * time.Minute

const (
	RoleSplitPlatform = "platform"
	RoleSplitAgentL1  = "agent_l1"
	RoleSplitAgentL2  = "agent_l2"
	RoleSplitOwner    = "owner"
)

// rechargeRatios are the bps shares of a confirmed order. Configurable via
// RECHARGE_SPLIT_BPS as "platform,l1,l2,owner"; the four must sum to 10000.
type rechargeRatios struct {
	Platform int
	L1       int
	L2       int
	Owner    int
}

func loadRechargeRatios() (rechargeRatios, error) {
	r := rechargeRatios{Platform: 1000, L1: 5400, L2: 2700, Owner: 900}
	raw := os.Getenv("RECHARGE_SPLIT_BPS")
	if raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) != 4 {
			return r, fmt.Errorf("RECHARGE_SPLIT_BPS needs 4 comma separated values, got %q", raw)
		}
		vals := make([]int, 4)
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 {
				return r, fmt.Errorf("invalid RECHARGE_SPLIT_BPS element %q", p)
			}
			vals[i] = v
		}
		r = rechargeRatios{Platform: vals[0], L1: vals[1], L2: vals[2], Owner: vals[3]}
	}
	if r.Platform+r.L1+r.L2+r.Owner != 10000 {
		return r, fmt.Errorf("recharge split bps must sum to 10000, got %d",
			r.Platform+r.L1+r.L2+r.Owner)
	}
	return r, nil
}

// newRechargeOrderNo builds the human-facing order number, e.g.
// CZ202608301532057a3f.
func newRechargeOrderNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return "CZ" + now.Format("20060102150405") + suffix
}

// CreateRechargeOrder opens a pending order for the user. An existing
// pending, unexpired order for the same amount is returned instead of
// stacking duplicates; orders not confirmed within 30 minutes expire.
func CreateRechargeOrder(userID uint, amount int64, remark string) (*models.RechargeOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("recharge amount must be positive, got %d", amount)
	}

	now := time.Now()
	var existing models.RechargeOrder
	err := dbconfig.DB.Where("user_id = ? AND amount_coins = ? AND status = ? AND expired_at > ?",
		userID, amount, models.RechargeStatusPending, now).
		Order("id DESC").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	order := models.RechargeOrder{
		OrderNo:     newRechargeOrderNo(now),
		UserID:      userID,
		AmountCoins: amount,
		Status:      models.RechargeStatusPending,
		RemarkIn:    remark,
		ExpiredAt:   now.Add(rechargeOrderTTL),
	}
	if err := dbconfig.DB.Create(&order).Error; err != nil {
		return nil, err
	}
	logger.Infof("> 用户 %d 创建充值单 %s, 金额 %d coins", userID, order.OrderNo, amount)
	return &order, nil
}

// GetRechargeOrder looks an order up by its order number.
func GetRechargeOrder(orderNo string) (*models.RechargeOrder, error) {
	var order models.RechargeOrder
	err := dbconfig.DB.Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("recharge order %s not found", orderNo)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListRechargeOrders lists orders newest first; userID 0 lists all.
func ListRechargeOrders(userID uint, status models.RechargeStatus, limit, offset int) ([]models.RechargeOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := dbconfig.DB.Model(&models.RechargeOrder{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.RechargeOrder
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, err
}

// RechargeSplits returns the per-party breakdown of one order.
func RechargeSplits(orderID uint) ([]models.RechargeSplit, error) {
	var splits []models.RechargeSplit
	err := dbconfig.DB.Where("recharge_order_id = ?", orderID).Order("id").Find(&splits).Error
	return splits, err
}

// ConfirmRecharge settles one order: the amount is divided by the
// configured bps across platform, the payer's two referrers and the payer,
// and each party's available balance is credited in a single transaction.
// Shares whose referrer does not exist fold into the platform share, as
// does the truncation remainder, so the splits always sum to the order
// amount. Keyed on order_no, a second confirmation is rejected without
// crediting anything; the admin endpoint and the gateway worker both land
// here.
func ConfirmRecharge(orderNo, gatewayTradeNo string, confirmedBy *uint) (*models.RechargeOrder, error) {
	order, err := GetRechargeOrder(orderNo)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.RechargeStatusSplitApplied, models.RechargeStatusConfirmed:
		return nil, fmt.Errorf("%w: recharge order %s already confirmed", ErrDuplicateOperation, orderNo)
	case models.RechargeStatusExpired:
		return nil, fmt.Errorf("%w: recharge order %s expired", ErrInvalidStateTransition, orderNo)
	}

	ratios, err := loadRechargeRatios()
	if err != nil {
		return nil, err
	}

	// Recharge splits follow the live relation, not a period snapshot;
	// orders are settled the moment the payment arrives.
	var rel models.UserReferral
	err = dbconfig.DB.Where("user_id = ?", order.UserID).First(&rel).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	l1Share := bpsShare(order.AmountCoins, ratios.L1)
	l2Share := bpsShare(order.AmountCoins, ratios.L2)
	ownerShare := bpsShare(order.AmountCoins, ratios.Owner)
	platformShare := order.AmountCoins - l1Share - l2Share - ownerShare
	if rel.InviterLevel1 == nil {
		platformShare += l1Share
		l1Share = 0
	}
	if rel.InviterLevel2 == nil {
		platformShare += l2Share
		l2Share = 0
	}

	parties := []uint{order.UserID}
	if rel.InviterLevel1 != nil {
		parties = append(parties, *rel.InviterLevel1)
	}
	if rel.InviterLevel2 != nil {
		parties = append(parties, *rel.InviterLevel2)
	}
	unlockAll := lockWallets(parties...)
	defer unlockAll()

	var committed []models.WalletLedgerEntry
	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.RechargeOrder{}).
			Where("id = ? AND status = ?", order.ID, models.RechargeStatusPending).
			Updates(map[string]interface{}{
				"status":           models.RechargeStatusConfirmed,
				"gateway_trade_no": gatewayTradeNo,
				"confirmed_by":     confirmedBy,
				"confirmed_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: recharge order %s confirmed concurrently",
				ErrDuplicateOperation, orderNo)
		}

		credit := func(userID *uint, role string, amount int64) error {
			if amount <= 0 {
				return nil
			}
			split := models.RechargeSplit{
				RechargeOrderID: order.ID,
				UserID:          userID,
				Role:            role,
				AmountCoins:     amount,
			}
			if err := tx.Create(&split).Error; err != nil {
				return err
			}
			if userID == nil {
				return nil
			}
			src := order.UserID
			ledger, err := applyLedger(tx, LedgerAppend{
				UserID:         *userID,
				Kind:           models.LedgerKindRechargeCredit,
				DeltaAvailable: amount,
				RefID:          order.OrderNo,
				SourceUserID:   &src,
				Remark:         fmt.Sprintf("recharge %s %s share", order.OrderNo, role),
			})
			if err != nil {
				return err
			}
			committed = append(committed, *ledger)
			return nil
		}

		if err := credit(nil, RoleSplitPlatform, platformShare); err != nil {
			return err
		}
		if err := credit(rel.InviterLevel1, RoleSplitAgentL1, l1Share); err != nil {
			return err
		}
		if err := credit(rel.InviterLevel2, RoleSplitAgentL2, l2Share); err != nil {
			return err
		}
		owner := order.UserID
		if err := credit(&owner, RoleSplitOwner, ownerShare); err != nil {
			return err
		}

		return tx.Model(&models.RechargeOrder{}).
			Where("id = ? AND status = ?", order.ID, models.RechargeStatusConfirmed).
			Update("status", models.RechargeStatusSplitApplied).Error
	})
	if err != nil {
		return nil, err
	}

	for _, e := range committed {
		notifyLedgerListeners(e)
	}
	logger.Infof("> 充值单 %s 确认入账, 金额 %d coins, 平台留存 %d",
		orderNo, order.AmountCoins, platformShare)
	publishEvent("recharge.split_applied", map[string]interface{}{
		"order_no": orderNo, "user_id": order.UserID, "amount_coins": order.AmountCoins,
	})
	return GetRechargeOrder(orderNo)
}

// ExpireRechargeOrders marks overdue pending orders as expired and returns
// how many were flipped. Driven by the schedule binary.
func ExpireRechargeOrders(now time.Time) (int64, error) {
	res := dbconfig.DB.Model(&models.RechargeOrder{}).
		Where("status = ? AND expired_at <= ?", models.RechargeStatusPending, now).
		Update("status", models.RechargeStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.Infof("> 过期充值单清理 %d 条", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
