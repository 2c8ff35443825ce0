package main

import (
	"os"
	"time"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/models"
	dbconfig "settlecontrol/pkg/config"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// ExpirePendingRecharges 清理超时未支付的充值单
func ExpirePendingRecharges() error {
	count, err := business.ExpireRechargeOrders(time.Now())
	if err != nil {
		logger.Errorf("> 清理过期充值单失败: %v", err)
		return err
	}
	if count > 0 {
		logger.Infof("> 已过期 %d 条充值单", count)
	}
	return nil
}

// ScanPaymentDeadlines 扫描缴款窗口已截止的结算期并收尾
func ScanPaymentDeadlines() error {
	now := time.Now()

	var periods []models.SettlementPeriod
	err := dbconfig.DB.Where("status = ? AND pay_end <= ?",
		models.PeriodStatusPaymentWindow, now).Find(&periods).Error
	if err != nil {
		logger.Errorf("> 查询待收尾结算期失败: %v", err)
		return err
	}

	for _, period := range periods {
		report, err := business.ReconcilePeriod(period.ID, now)
		if err != nil {
			logger.Errorf("> 结算期 %d 收尾失败: %v", period.ID, err)
			continue
		}
		logger.Infof("> 结算期 %d 已收尾, 未缴清 %d 条", period.ID, len(report.UnpaidObligations))
	}
	return nil
}

func main() {
	// 配置日志输出到文件
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/settlement_tasks.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logger.SetOutput(file)
	} else {
		logger.Warn("无法打开日志文件，日志将输出到标准输出")
	}

	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)
	logger.Info("> 开始初始化程序...")

	// 初始化数据库连接
	dbconfig.InitDB()
	logger.Info("> 数据库连接初始化完成")

	// 创建定时任务
	c := cron.New(cron.WithSeconds())

	// 每分钟清理过期充值单
	_, err = c.AddFunc("0 * * * * *", func() {
		if err := ExpirePendingRecharges(); err != nil {
			logger.Errorf("> 过期充值单任务失败: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("> 添加定时任务失败: %v", err)
	}

	// 每10分钟扫描缴款截止
	_, err = c.AddFunc("0 */10 * * * *", func() {
		if err := ScanPaymentDeadlines(); err != nil {
			logger.Errorf("> 缴款截止扫描任务失败: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("> 添加定时任务失败: %v", err)
	}

	logger.Info("> 定时任务已启动")

	// 启动定时任务
	c.Start()

	// 保持程序运行
	select {}
}
