package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config は環境変数から読み込むボットの設定
type Config struct {
	DiscordBotToken  string
	DiscordAppID     string
	DiscordPublicKey string
	DatabasePath     string
	ListenAddr       string
	SessionTimeout   time.Duration // 全ての対話ステップで共通のタイムアウト
	DailyClaimHour   int           // デイリー自動受け取りの時刻（UTC、時）
}

// LoadConfig は環境変数を読み込んで設定を組み立てる関数
func LoadConfig() Config {
	cfg := Config{
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordAppID:     os.Getenv("DISCORD_APP_ID"),
		DiscordPublicKey: os.Getenv("DISCORD_PUBLIC_KEY"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		SessionTimeout:   120 * time.Second,
		DailyClaimHour:   16,
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "accounts.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			log.Printf("invalid SESSION_TIMEOUT %q, using default", v)
		} else {
			cfg.SessionTimeout = time.Duration(seconds) * time.Second
		}
	}

	if v := os.Getenv("DAILY_CLAIM_HOUR"); v != "" {
		hour, err := strconv.Atoi(v)
		if err != nil || hour < 0 || hour > 23 {
			log.Printf("invalid DAILY_CLAIM_HOUR %q, using default", v)
		} else {
			cfg.DailyClaimHour = hour
		}
	}

	return cfg
}
