package models

import "time"

// GameAccount は1つの原神アカウントを表す。
// 最初にリンクされたときに作成され、最後のリンクが外れたときに削除される。
type GameAccount struct {
	GenshinUID     string `gorm:"primaryKey"`
	AutoClaimCodes bool   // コード自動受け取りの有効フラグ
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
