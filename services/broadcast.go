package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// redeemLimiter はHoYoLAB側のコード引き換えのレート制限に合わせた間隔。
// テストでは差し替える。
var redeemLimiter = rate.NewLimiter(rate.Every(5*time.Second), 1)

// BroadcastCode は新しいコードを自動受け取りが有効な全アカウントへ展開する。
// 1アカウントの失敗は他のアカウントの処理を止めず、結果はそのアカウントに
// リンクしている全ユーザーへ同じ文面で通知する。
func BroadcastCode(db *gorm.DB, m Messenger, api HoyoAPI, code string) {
	accounts, err := AutoClaimAccounts(db)
	if err != nil {
		log.Printf("auto claim account list error: %v", err)
		return
	}

	for _, account := range accounts {
		if err := redeemLimiter.Wait(context.Background()); err != nil {
			return
		}

		var outcome string
		if err := api.RedeemCode(account.Cookie, account.GenshinUID, code); err != nil {
			outcome = fmt.Sprintf("Error auto-claiming code `%s` on %s: `%v`", code, account.GenshinUID, err)
		} else {
			outcome = fmt.Sprintf("Successfully auto-claimed code `%s` on %s", code, account.GenshinUID)
		}

		for _, discordID := range account.DiscordIDs {
			if err := NotifyUser(m, discordID, outcome); err != nil {
				log.Printf("notification send error (user: %s): %v", discordID, err)
			}
		}
	}
}
