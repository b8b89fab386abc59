package models

import "time"

// AccountLink は Discord ユーザーと原神アカウントのリンクを保持する
type AccountLink struct {
	ID         string `gorm:"primaryKey"`
	DiscordID  string `gorm:"index:idx_discord_genshin,unique"` // Discord のユーザーID
	GenshinUID string `gorm:"index:idx_discord_genshin,unique"` // リンク先の原神UID
	CreatedAt  time.Time
}
