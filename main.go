package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hoyolab-claim-bot/handlers"
	"hoyolab-claim-bot/models"
	"hoyolab-claim-bot/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	cfg := services.LoadConfig()

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(
		&models.GameAccount{},
		&models.HoyoCookie{},
		&models.AccountLink{},
		&models.RedemptionCode{},
	); err != nil {
		log.Fatal(err)
	}

	discord := services.NewDiscordClient(cfg)
	hoyo := services.NewHoyoClient()
	dispatcher := services.NewDispatcher()

	if err := services.RegisterCommands(discord); err != nil {
		log.Fatal(err)
	}

	go services.RunDailyClaim(context.Background(), db, discord, hoyo, cfg.DailyClaimHour)

	r := gin.Default()
	r.POST("/interactions", handlers.HandleInteraction(db, discord, hoyo, dispatcher, cfg))

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
