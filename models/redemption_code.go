package models

import "time"

// RedemptionCode は投稿済みのプロモーションコード。追加のみで更新・削除はしない。
type RedemptionCode struct {
	Code      string `gorm:"primaryKey"`
	CreatedAt time.Time
}
