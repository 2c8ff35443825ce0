package business

import (
	"errors"
	"sync"
	"testing"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLedger(t *testing.T) {
	t.Run("creates wallet on first touch", func(t *testing.T) {
		setupTestDB(t)
		user := createTestUser(t, "alice")

		entry, err := AppendLedger(LedgerAppend{
			UserID:         user.ID,
			Kind:           models.LedgerKindRechargeCredit,
			DeltaAvailable: 500,
			RefID:          "ref-1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500), entry.DeltaAvailable)

		wallet := walletOf(t, user.ID)
		assert.Equal(t, int64(500), wallet.AvailableCoins)
		assert.Equal(t, int64(0), wallet.LockedCoins)
	})

	t.Run("rejects debit past zero without side effects", func(t *testing.T) {
		setupTestDB(t)
		user := createTestUser(t, "bob")
		fundWallet(t, user.ID, 100)

		_, err := AppendLedger(LedgerAppend{
			UserID:         user.ID,
			Kind:           models.LedgerKindWithdrawalReserve,
			DeltaAvailable: -101,
			RefID:          "ref-2",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientBalance))

		wallet := walletOf(t, user.ID)
		assert.Equal(t, int64(100), wallet.AvailableCoins)

		var count int64
		require.NoError(t, dbconfig.DB.Model(&models.WalletLedgerEntry{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count, "failed debit must not leave a ledger row")
	})

	t.Run("rejects negative locked balance as corruption", func(t *testing.T) {
		setupTestDB(t)
		user := createTestUser(t, "carol")

		_, err := AppendLedger(LedgerAppend{
			UserID:      user.ID,
			Kind:        models.LedgerKindCommissionUnlock,
			DeltaLocked: -50,
			RefID:       "ref-3",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrWalletCorrupted))
	})
}

func TestLedgerSumMatchesWallet(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "dave")

	fundWallet(t, user.ID, 1000)
	_, err := AppendLedger(LedgerAppend{
		UserID: user.ID, Kind: models.LedgerKindCommissionLock, DeltaLocked: 250, RefID: "l1",
	})
	require.NoError(t, err)
	_, err = AppendLedger(LedgerAppend{
		UserID: user.ID, Kind: models.LedgerKindCommissionUnlock,
		DeltaAvailable: 250, DeltaLocked: -250, RefID: "l2",
	})
	require.NoError(t, err)
	_, err = AppendLedger(LedgerAppend{
		UserID: user.ID, Kind: models.LedgerKindWithdrawalReserve, DeltaAvailable: -300, RefID: "l3",
	})
	require.NoError(t, err)

	available, locked, err := LedgerSum(user.ID)
	require.NoError(t, err)

	wallet := walletOf(t, user.ID)
	assert.Equal(t, wallet.AvailableCoins, available)
	assert.Equal(t, wallet.LockedCoins, locked)
	assert.Equal(t, int64(950), available)
	assert.Equal(t, int64(0), locked)
}

func TestConcurrentAppendsStayConsistent(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "erin")
	fundWallet(t, user.ID, 0)

	const workers = 8
	const perWorker = 5
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := AppendLedger(LedgerAppend{
					UserID:         user.ID,
					Kind:           models.LedgerKindRechargeCredit,
					DeltaAvailable: 10,
					RefID:          "concurrent",
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	available, _, err := LedgerSum(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker*10), available)
	assert.Equal(t, available, walletOf(t, user.ID).AvailableCoins)
}

func TestLedgerHistory(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t, "frank")

	fundWallet(t, user.ID, 100)
	fundWallet(t, user.ID, 200)

	entries, err := LedgerHistory(user.ID, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(200), entries[0].DeltaAvailable, "newest first")
}
