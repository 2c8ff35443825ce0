package business

import (
	"errors"
	"testing"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateObligationsWithoutReferrer(t *testing.T) {
	setupTestDB(t)
	a := createTestUser(t, "a")
	period := createTestPeriod(t)
	addEarning(t, a.ID, "2026-08-02", 1000)

	result := advanceToGenerated(t, period.ID)
	assert.Equal(t, 1, result.UserCount)
	assert.Equal(t, 0, result.CommissionCount)
	assert.Equal(t, int64(1000), result.GrossCoins)

	income, err := PeriodIncomes(period.ID)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, int64(600), income[0].SelfKeepCoins)
	assert.Equal(t, int64(0), income[0].L1CommissionCoins)
	assert.Equal(t, int64(0), income[0].L2CommissionCoins)
	// Uncredited tier shares accrue to the platform.
	assert.Equal(t, int64(400), income[0].PlatformDueCoins)

	ob, err := GetObligation(period.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(160), ob.AmountDue)
	assert.Equal(t, models.ObligationStatusUnpaid, ob.Status)

	// Nobody was credited, so no wallet moved.
	available, locked, err := LedgerSum(a.ID)
	require.NoError(t, err)
	assert.Zero(t, available)
	assert.Zero(t, locked)
}

func TestGenerateObligationsCreditsUplines(t *testing.T) {
	setupTestDB(t)
	a := createTestUser(t, "a")
	b := createTestUser(t, "b")
	_, err := BindReferral(b.ID, a.ID)
	require.NoError(t, err)

	period := createTestPeriod(t)
	addEarning(t, a.ID, "2026-08-02", 1000)
	addEarning(t, b.ID, "2026-08-03", 1000)

	result := advanceToGenerated(t, period.ID)
	assert.Equal(t, 2, result.UserCount)
	assert.Equal(t, 1, result.CommissionCount)
	assert.Equal(t, int64(200), result.CommissionCoins)

	// A earns the level-1 commission on B's gross, locked until B pays.
	wallet := walletOf(t, a.ID)
	assert.Equal(t, int64(0), wallet.AvailableCoins)
	assert.Equal(t, int64(200), wallet.LockedCoins)

	var entry models.CommissionEntry
	require.NoError(t, dbconfig.DB.Where("period_id = ? AND beneficiary_id = ?", period.ID, a.ID).
		First(&entry).Error)
	assert.Equal(t, b.ID, entry.SourceUserID)
	assert.Equal(t, 1, entry.Level)
	assert.Equal(t, int64(200), entry.AmountCoins)
	assert.Equal(t, models.CommissionStateLocked, entry.State)

	// B keeps 600, credits 200 upward, owes the platform the rest.
	incomes, err := PeriodIncomes(period.ID)
	require.NoError(t, err)
	for _, in := range incomes {
		if in.UserID == b.ID {
			assert.Equal(t, int64(200), in.L1CommissionCoins)
			assert.Equal(t, int64(200), in.PlatformDueCoins)
		}
	}

	obA, err := GetObligation(period.ID, a.ID)
	require.NoError(t, err)
	obB, err := GetObligation(period.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(160), obA.AmountDue)
	assert.Equal(t, int64(160), obB.AmountDue)
}

func TestGenerateObligationsClosure(t *testing.T) {
	// For every payer: gross = self + credited commissions + platform due.
	setupTestDB(t)
	a := createTestUser(t, "a")
	b := createTestUser(t, "b")
	c := createTestUser(t, "c")
	_, err := BindReferral(b.ID, a.ID)
	require.NoError(t, err)
	_, err = BindReferral(c.ID, b.ID)
	require.NoError(t, err)

	period := createTestPeriod(t)
	addEarning(t, a.ID, "2026-08-02", 333)
	addEarning(t, b.ID, "2026-08-02", 7777)
	addEarning(t, c.ID, "2026-08-02", 12345)

	advanceToGenerated(t, period.ID)

	incomes, err := PeriodIncomes(period.ID)
	require.NoError(t, err)
	require.Len(t, incomes, 3)
	for _, in := range incomes {
		assert.Equal(t, in.GrossCoins,
			in.SelfKeepCoins+in.L1CommissionCoins+in.L2CommissionCoins+in.PlatformDueCoins,
			"user %d", in.UserID)

		// Uncredited tier shares raise platform due above the obligation,
		// never below it.
		ob, err := GetObligation(period.ID, in.UserID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, in.PlatformDueCoins, ob.AmountDue, "user %d", in.UserID)
	}

	// B is credited C's level-1 share; A gets B's level-1 plus C's level-2.
	assert.Equal(t, bpsShare(12345, 2000), walletOf(t, b.ID).LockedCoins)
	assert.Equal(t, bpsShare(7777, 2000)+bpsShare(12345, 400), walletOf(t, a.ID).LockedCoins)
}

func TestGenerateObligationsRerunRejected(t *testing.T) {
	setupTestDB(t)
	a := createTestUser(t, "a")
	b := createTestUser(t, "b")
	_, err := BindReferral(b.ID, a.ID)
	require.NoError(t, err)

	period := createTestPeriod(t)
	addEarning(t, b.ID, "2026-08-02", 1000)
	advanceToGenerated(t, period.ID)

	lockedBefore := walletOf(t, a.ID).LockedCoins

	_, err = GenerateObligations(period.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOperation))
	assert.Equal(t, lockedBefore, walletOf(t, a.ID).LockedCoins, "rerun must not re-credit")
}

func TestGenerateObligationsSkipsZeroEarners(t *testing.T) {
	setupTestDB(t)
	createTestUser(t, "idle")
	earner := createTestUser(t, "earner")
	period := createTestPeriod(t)
	addEarning(t, earner.ID, "2026-08-02", 500)

	result := advanceToGenerated(t, period.ID)
	assert.Equal(t, 1, result.UserCount)

	obs, err := ListObligations(period.ID, "")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, earner.ID, obs[0].UserID)
}

func TestGenerateObligationsIgnoresOutOfRangeEarnings(t *testing.T) {
	setupTestDB(t)
	u := createTestUser(t, "u")
	period := createTestPeriod(t)
	addEarning(t, u.ID, "2026-08-02", 1000)
	addEarning(t, u.ID, "2026-07-31", 9999) // before the interval
	addEarning(t, u.ID, "2026-08-08", 8888) // at period_end, exclusive

	result := advanceToGenerated(t, period.ID)
	assert.Equal(t, int64(1000), result.GrossCoins)
}
