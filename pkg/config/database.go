package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"settlecontrol/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Shanghai",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(20)           // 设置空闲连接池中的最大连接数
	sqlDB.SetMaxOpenConns(100)          // 设置打开数据库连接的最大数量
	sqlDB.SetConnMaxLifetime(time.Hour) // 设置连接可复用的最大时间

	DB = db

	if err := AutoMigrateModels(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}

// AutoMigrateModels migrates every model the service persists. Shared with
// the engine test helper so tests run against the same schema.
func AutoMigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserReferral{},
		&models.SettlementPeriod{},
		&models.EarningRecord{},
		&models.ReferralSnapshot{},
		&models.SettlementIncome{},
		&models.SettlementObligation{},
		&models.CommissionEntry{},
		&models.WalletAccount{},
		&models.WalletLedgerEntry{},
		&models.WithdrawRequest{},
		&models.RechargeOrder{},
		&models.RechargeSplit{},
	)
}
