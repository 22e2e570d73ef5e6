package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/config"
	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/router"
	"github.com/wowcafe/cafe-app/services"
	"github.com/wowcafe/cafe-app/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	utils.StartBlacklistCleanup()

	// Push dispatch is optional; without Firebase credentials the notifier
	// is a logged no-op.
	var notifier *services.Notifier
	if sender, err := services.NewFCMSender(context.Background()); err != nil {
		utils.ErrorLogger.Printf("FCM unavailable, push notifications disabled: %v", err)
		notifier = services.NewNotifier(nil)
	} else {
		notifier = services.NewNotifier(sender)
	}

	sms := services.NewSMSSender()

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db, notifier, sms)
	r.Use(rateLimiter.RateLimit())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.AuthUser{},
		&models.MobileAccount{},
		&models.Item{},
		&models.ItemSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderLine{},
		&models.OrderStatusEvent{},
		&models.DailyCounter{},
		&models.CafeConfig{},
		&models.Notification{},
		&models.AttributeConfig{},
		&models.Product{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
