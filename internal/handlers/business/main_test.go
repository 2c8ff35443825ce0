package business

import (
	"fmt"
	"testing"
	"time"

	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB swaps the package-level connection for a fresh in-memory
// database. Every test starts from an empty schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, dbconfig.AutoMigrateModels(db))
	dbconfig.DB = db
	return db
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{Username: username, Nickname: username, Role: models.UserRoleRegular, Status: 1}
	require.NoError(t, dbconfig.DB.Create(&user).Error)
	return &user
}

func createTestAdmin(t *testing.T) *models.User {
	t.Helper()
	admin := models.User{Username: "admin", Role: models.UserRoleAdmin, Status: 1}
	require.NoError(t, dbconfig.DB.Create(&admin).Error)
	return &admin
}

// defaultPeriodInput builds a week-long period with the standard ratios:
// 60% self, 20% level 1, 4% level 2, 16% platform.
func defaultPeriodInput() CreatePeriodInput {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	return CreatePeriodInput{
		PeriodStart: start,
		PeriodEnd:   end,
		PayStart:    end,
		PayEnd:      end.AddDate(0, 0, 3),
		SelfBps:     6000,
		L1Bps:       2000,
		L2Bps:       400,
		PlatformBps: 1600,
	}
}

func createTestPeriod(t *testing.T) *models.SettlementPeriod {
	t.Helper()
	period, created, err := CreatePeriod(defaultPeriodInput())
	require.NoError(t, err)
	require.True(t, created)
	return period
}

func addEarning(t *testing.T, userID uint, day string, coins int64) {
	t.Helper()
	_, err := IngestEarnings([]EarningInput{{UserID: userID, StatDate: day, CoinsTotal: coins}})
	require.NoError(t, err)
}

// fundWallet credits available coins directly through the ledger so tests
// can set up balances without going through a recharge.
func fundWallet(t *testing.T, userID uint, amount int64) {
	t.Helper()
	_, err := AppendLedger(LedgerAppend{
		UserID:         userID,
		Kind:           models.LedgerKindRechargeCredit,
		DeltaAvailable: amount,
		RefID:          fmt.Sprintf("test-fund-%d", userID),
		Remark:         "test funding",
	})
	require.NoError(t, err)
}

func walletOf(t *testing.T, userID uint) *models.WalletAccount {
	t.Helper()
	wallet, err := WalletBalance(userID)
	require.NoError(t, err)
	return wallet
}

// advanceToGenerated walks a period open -> closed -> snapshotted and runs
// obligation generation.
func advanceToGenerated(t *testing.T, periodID uint) *GenerateResult {
	t.Helper()
	_, err := ClosePeriod(periodID)
	require.NoError(t, err)
	_, err = SnapshotPeriod(periodID)
	require.NoError(t, err)
	result, err := GenerateObligations(periodID)
	require.NoError(t, err)
	return result
}
