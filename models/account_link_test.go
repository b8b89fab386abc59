package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAccountLinkTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
	}

	// マイグレーションを実行
	if err := db.AutoMigrate(&AccountLink{}); err != nil {
		t.Fatalf("fail to migrate test db: %v", err)
	}

	return db
}

func TestAccountLink_UniquePerUserAndUID(t *testing.T) {
	db := setupAccountLinkTestDB(t)

	link := AccountLink{
		ID:         uuid.NewString(),
		DiscordID:  "111111111111111111",
		GenshinUID: "700000001",
	}
	err := db.Create(&link).Error
	assert.NoError(t, err)

	// 同じ (DiscordID, GenshinUID) の組は複合ユニークインデックスで弾かれる
	duplicate := AccountLink{
		ID:         uuid.NewString(),
		DiscordID:  "111111111111111111",
		GenshinUID: "700000001",
	}
	err = db.Create(&duplicate).Error
	assert.Error(t, err)

	// 別ユーザーから同じUIDへのリンクは作成できる
	other := AccountLink{
		ID:         uuid.NewString(),
		DiscordID:  "222222222222222222",
		GenshinUID: "700000001",
	}
	err = db.Create(&other).Error
	assert.NoError(t, err)

	var count int64
	db.Model(&AccountLink{}).Where("genshin_uid = ?", "700000001").Count(&count)
	assert.Equal(t, int64(2), count)
}
