package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// RunDailyClaim は毎日決まった時刻（UTC）に、自動受け取りが有効な全アカウントの
// デイリー報酬を受け取る。起動時にgoroutineで動かす。
func RunDailyClaim(ctx context.Context, db *gorm.DB, m Messenger, api HoyoAPI, hourUTC int) {
	for {
		next := nextClaimTime(time.Now().UTC(), hourUTC)
		log.Printf("next daily claim run: %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		claimDailyForAll(db, m, api)
	}
}

// nextClaimTime は次の実行時刻を返す関数
func nextClaimTime(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// claimDailyForAll は全対象アカウントのデイリーを受け取って結果を通知する。
// 失敗の扱いはコード展開と同じで、1アカウントの失敗は他を止めない。
func claimDailyForAll(db *gorm.DB, m Messenger, api HoyoAPI) {
	accounts, err := AutoClaimAccounts(db)
	if err != nil {
		log.Printf("auto claim account list error: %v", err)
		return
	}

	for _, account := range accounts {
		var outcome string
		if err := api.ClaimDaily(account.Cookie, account.GenshinUID); err != nil {
			outcome = fmt.Sprintf("Error claiming daily on %s: `%v`", account.GenshinUID, err)
		} else {
			outcome = fmt.Sprintf("Successfully claimed daily on %s", account.GenshinUID)
		}

		for _, discordID := range account.DiscordIDs {
			if err := NotifyUser(m, discordID, outcome); err != nil {
				log.Printf("notification send error (user: %s): %v", discordID, err)
			}
		}
	}
}
