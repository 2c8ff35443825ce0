package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"settlecontrol/internal/handlers/business"
	"settlecontrol/internal/routes"
	"settlecontrol/pkg/config"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Initialize database
	config.InitDB()

	// Apply pending schema migrations when enabled
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		config.ExecuteMigrations()
	}

	// Initialize RabbitMQ (optional, will log warning if not configured)
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()

		publisher, err := config.NewPublisher()
		if err != nil {
			log.Fatal("Create event publisher failed:", err)
		}
		defer publisher.Close()
		business.SetEventPublisher(publisher)
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
