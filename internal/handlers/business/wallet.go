package business

import (
	"fmt"
	"sort"
	"sync"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"gorm.io/gorm"
)

// walletLocks serializes balance mutations per user. Wallet writes are the
// single serialization point of the service: every balance-affecting
// operation acquires the owning user's lock for the duration of the
// read-modify-write plus the ledger append.
var walletLocks = struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}{m: make(map[uint]*sync.Mutex)}

func walletLock(userID uint) *sync.Mutex {
	walletLocks.mu.Lock()
	defer walletLocks.mu.Unlock()
	l, ok := walletLocks.m[userID]
	if !ok {
		l = &sync.Mutex{}
		walletLocks.m[userID] = l
	}
	return l
}

// lockWallets acquires the locks for every given user in ascending id order
// and returns the matching unlock. Ordered acquisition keeps multi-wallet
// operations (recharge split, commission funding) deadlock free.
func lockWallets(userIDs ...uint) func() {
	seen := make(map[uint]bool, len(userIDs))
	ids := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locks := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		l := walletLock(id)
		l.Lock()
		locks = append(locks, l)
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// LedgerAppend describes one entry to append.
type LedgerAppend struct {
	UserID         uint
	PeriodID       *uint
	Kind           models.LedgerKind
	DeltaAvailable int64
	DeltaLocked    int64
	RefID          string
	SourceUserID   *uint
	Remark         string
}

// getOrCreateWallet loads the user's wallet row inside tx, creating a zero
// row on first touch.
func getOrCreateWallet(tx *gorm.DB, userID uint) (*models.WalletAccount, error) {
	var wallet models.WalletAccount
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		wallet = models.WalletAccount{UserID: userID}
		if err := tx.Create(&wallet).Error; err != nil {
			return nil, err
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// applyLedger inserts one ledger entry and moves the materialized totals in
// the same transaction. The caller must already hold the user's wallet
// lock. Fails without side effects if either resulting balance would go
// negative.
func applyLedger(tx *gorm.DB, e LedgerAppend) (*models.WalletLedgerEntry, error) {
	wallet, err := getOrCreateWallet(tx, e.UserID)
	if err != nil {
		return nil, err
	}

	newAvailable := wallet.AvailableCoins + e.DeltaAvailable
	newLocked := wallet.LockedCoins + e.DeltaLocked
	if newAvailable < 0 {
		return nil, fmt.Errorf("%w: requested %d, available %d (user %d)",
			ErrInsufficientBalance, -e.DeltaAvailable, wallet.AvailableCoins, e.UserID)
	}
	if newLocked < 0 {
		return nil, fmt.Errorf("%w: locked delta %d, locked %d (user %d)",
			ErrWalletCorrupted, e.DeltaLocked, wallet.LockedCoins, e.UserID)
	}

	entry := models.WalletLedgerEntry{
		UserID:         e.UserID,
		PeriodID:       e.PeriodID,
		Kind:           e.Kind,
		DeltaAvailable: e.DeltaAvailable,
		DeltaLocked:    e.DeltaLocked,
		RefID:          e.RefID,
		SourceUserID:   e.SourceUserID,
		Remark:         e.Remark,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	err = tx.Model(&models.WalletAccount{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]interface{}{
			"available_coins": newAvailable,
			"locked_coins":    newLocked,
		}).Error
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// AppendLedger appends a single entry atomically under the user's wallet
// lock. Multi-wallet operations use applyLedger directly inside their own
// transactions and lock sets.
func AppendLedger(e LedgerAppend) (*models.WalletLedgerEntry, error) {
	unlock := lockWallets(e.UserID)
	defer unlock()

	var entry *models.WalletLedgerEntry
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = applyLedger(tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	notifyLedgerListeners(*entry)
	return entry, nil
}

// WalletBalance returns the current (available, locked) pair, creating the
// wallet on first read the way the original flows expect.
func WalletBalance(userID uint) (*models.WalletAccount, error) {
	var wallet models.WalletAccount
	err := dbconfig.DB.Where("user_id = ?", userID).First(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		unlock := lockWallets(userID)
		defer unlock()
		err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
			w, err := getOrCreateWallet(tx, userID)
			if err != nil {
				return err
			}
			wallet = *w
			return nil
		})
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// LedgerHistory lists a user's ledger entries newest first. Entries are
// immutable once returned; callers page with limit/offset.
func LedgerHistory(userID uint, periodID *uint, limit, offset int) ([]models.WalletLedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := dbconfig.DB.Where("user_id = ?", userID)
	if periodID != nil {
		query = query.Where("period_id = ?", *periodID)
	}
	var entries []models.WalletLedgerEntry
	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, err
}

// LedgerSum recomputes a wallet's balance from first principles. Reporting
// and tests use it to check the append-only reconciliation invariant.
func LedgerSum(userID uint) (available int64, locked int64, err error) {
	row := struct {
		Available int64
		Locked    int64
	}{}
	err = dbconfig.DB.Model(&models.WalletLedgerEntry{}).
		Select("COALESCE(SUM(delta_available),0) AS available, COALESCE(SUM(delta_locked),0) AS locked").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Available, row.Locked, err
}
