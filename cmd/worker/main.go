package main

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/pkg/config"
)

// gatewayConfirmQueue carries payment-gateway callbacks for recharge orders.
const gatewayConfirmQueue = "recharge_gateway_confirm"

// GatewayConfirmMessage is the payload the payment gateway bridge publishes
// once a recharge payment clears.
type GatewayConfirmMessage struct {
	OrderNo        string `json:"order_no"`
	GatewayTradeNo string `json:"gateway_trade_no"`
	AmountCoins    int64  `json:"amount_coins"`
}

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment")
	}

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	// Settlement events produced while confirming orders go out through
	// the same broker.
	publisher, err := config.NewPublisher()
	if err != nil {
		logrus.Fatal("Failed to create event publisher: ", err)
	}
	defer publisher.Close()
	business.SetEventPublisher(publisher)

	// Create consumer for gateway confirmations
	msgConsumer, err := config.NewConsumer(gatewayConfirmQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Recharge confirmation worker started, waiting for messages...")

	// Start consuming messages
	err = msgConsumer.Consume(func(msg []byte) error {
		var confirm GatewayConfirmMessage
		if err := json.Unmarshal(msg, &confirm); err != nil {
			logrus.Errorf("Failed to unmarshal message: %v", err)
			return err
		}
		if confirm.OrderNo == "" {
			logrus.Warn("Dropping gateway message without order_no")
			return nil
		}

		logrus.Infof("Received gateway confirmation for order %s (trade %s)",
			confirm.OrderNo, confirm.GatewayTradeNo)

		order, err := business.GetRechargeOrder(confirm.OrderNo)
		if err != nil {
			logrus.Errorf("Unknown order %s in gateway message: %v", confirm.OrderNo, err)
			return nil
		}
		if confirm.AmountCoins != 0 && confirm.AmountCoins != order.AmountCoins {
			// Mismatched payments need a human; ack and leave the order pending.
			logrus.Errorf("Gateway amount %d differs from order %s amount %d, skipping auto-confirm",
				confirm.AmountCoins, order.OrderNo, order.AmountCoins)
			return nil
		}

		if _, err := business.ConfirmRecharge(confirm.OrderNo, confirm.GatewayTradeNo, nil); err != nil {
			// A replayed confirmation is normal after broker redelivery;
			// ack it instead of cycling the message forever.
			if errors.Is(err, business.ErrDuplicateOperation) {
				logrus.Infof("Order %s already confirmed, ignoring replay", confirm.OrderNo)
				return nil
			}
			logrus.Errorf("Failed to confirm order %s: %v", confirm.OrderNo, err)
			return err
		}
		return nil
	})

	if err != nil {
		log.Fatal("Failed to start consumer: ", err)
	}
}
