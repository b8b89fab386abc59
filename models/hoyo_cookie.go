package models

import "time"

// HoyoCookie は分解済みのHoYoLABセッションクッキーを保持する。
// GameAccountと1:1で、アカウントと同じタイミングで作成・削除される。
type HoyoCookie struct {
	ID          string `gorm:"primaryKey"`
	GenshinUID  string `gorm:"uniqueIndex"`
	LtUID       string
	LtToken     string
	CookieToken string
	AccountID   string
	Lang        string
	CreatedAt   time.Time
}
