package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// ClaimDailyForUser は呼び出し元の全リンク済みアカウントでデイリー報酬を受け取り、
// アカウントごとの結果を1行ずつ返す関数
func ClaimDailyForUser(db *gorm.DB, api HoyoAPI, discordID string) []string {
	accounts, err := LinkedAccounts(db, discordID)
	if err != nil {
		log.Printf("linked account load error (user: %s): %v", discordID, err)
		return []string{"Could not load your linked accounts."}
	}

	lines := make([]string, 0, len(accounts))
	for _, account := range accounts {
		if err := api.ClaimDaily(account.Cookie, account.GenshinUID); err != nil {
			lines = append(lines, fmt.Sprintf("Error claiming daily on %s: `%v`", account.GenshinUID, err))
		} else {
			lines = append(lines, fmt.Sprintf("Successfully claimed daily on %s", account.GenshinUID))
		}
	}
	return lines
}

// RedeemCodeForUser は呼び出し元の全リンク済みアカウントでコードを引き換え、
// アカウントごとの結果を1行ずつ返す関数
func RedeemCodeForUser(db *gorm.DB, api HoyoAPI, discordID, code string) []string {
	accounts, err := LinkedAccounts(db, discordID)
	if err != nil {
		log.Printf("linked account load error (user: %s): %v", discordID, err)
		return []string{"Could not load your linked accounts."}
	}

	lines := make([]string, 0, len(accounts))
	for _, account := range accounts {
		if err := api.RedeemCode(account.Cookie, account.GenshinUID, code); err != nil {
			lines = append(lines, fmt.Sprintf("Error claiming code `%s` on %s: `%v`", code, account.GenshinUID, err))
		} else {
			lines = append(lines, fmt.Sprintf("Successfully claimed code `%s` on %s", code, account.GenshinUID))
		}
	}
	return lines
}
