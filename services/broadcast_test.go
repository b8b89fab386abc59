package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"hoyolab-claim-bot/models"
)

func init() {
	// テストではレート制限を待たない
	redeemLimiter = rate.NewLimiter(rate.Inf, 1)
}

func TestBroadcastCode_SharedAccountGetsOneRedeemTwoNotifications(t *testing.T) {
	db := setupStoreTestDB(t)
	fake := newFakeMessenger()
	hoyo := newFakeHoyo()

	assert.NoError(t, LinkAccount(db, "user-a", "700000002", testCookie()))
	assert.NoError(t, LinkAccount(db, "user-b", "700000002", testCookie()))

	BroadcastCode(db, fake, hoyo, "GENSHINGIFT")

	// 引き換えはUIDごとに1回だけ
	assert.Equal(t, []string{"700000002:GENSHINGIFT"}, hoyo.redeemCalls)

	// リンクしている2人に同じ文面が届く
	toA := fake.sentTo("dm-user-a")
	toB := fake.sentTo("dm-user-b")
	assert.Len(t, toA, 1)
	assert.Len(t, toB, 1)
	assert.Equal(t, toA[0], toB[0])
	assert.Contains(t, toA[0], "Successfully auto-claimed code `GENSHINGIFT` on 700000002")
}

func TestBroadcastCode_FailureDoesNotBlockOtherAccounts(t *testing.T) {
	db := setupStoreTestDB(t)
	fake := newFakeMessenger()
	hoyo := newFakeHoyo()

	assert.NoError(t, LinkAccount(db, "user-a", "700000003", testCookie()))
	assert.NoError(t, LinkAccount(db, "user-b", "700000004", testCookie()))
	hoyo.failUIDs["700000003"] = assert.AnError

	BroadcastCode(db, fake, hoyo, "GENSHINGIFT")

	// 失敗したアカウントにも成功したアカウントにも通知が届く
	toA := fake.sentTo("dm-user-a")
	toB := fake.sentTo("dm-user-b")
	assert.Len(t, toA, 1)
	assert.Contains(t, toA[0], "Error auto-claiming code `GENSHINGIFT` on 700000003")
	assert.Len(t, toB, 1)
	assert.Contains(t, toB[0], "Successfully auto-claimed code `GENSHINGIFT` on 700000004")

	// 両方のUIDで引き換えが試行されている
	assert.Len(t, hoyo.redeemCalls, 2)
}

func TestBroadcastCode_NotificationFailureDoesNotAbort(t *testing.T) {
	db := setupStoreTestDB(t)
	fake := newFakeMessenger()
	hoyo := newFakeHoyo()

	assert.NoError(t, LinkAccount(db, "user-a", "700000002", testCookie()))
	assert.NoError(t, LinkAccount(db, "user-b", "700000002", testCookie()))
	fake.failDM["user-a"] = true // DMがブロックされているユーザー

	BroadcastCode(db, fake, hoyo, "GENSHINGIFT")

	// user-a への通知は失敗しても user-b には届く
	assert.Empty(t, fake.sentTo("dm-user-a"))
	assert.Len(t, fake.sentTo("dm-user-b"), 1)
}

func TestBroadcastCode_SkipsOptedOutAccounts(t *testing.T) {
	db := setupStoreTestDB(t)
	fake := newFakeMessenger()
	hoyo := newFakeHoyo()

	assert.NoError(t, LinkAccount(db, "user-a", "700000001", testCookie()))
	err := db.Model(&models.GameAccount{}).
		Where("genshin_uid = ?", "700000001").
		Update("auto_claim_codes", false).Error
	assert.NoError(t, err)

	BroadcastCode(db, fake, hoyo, "GENSHINGIFT")

	assert.Empty(t, hoyo.redeemCalls)
	assert.Empty(t, fake.sentTo("dm-user-a"))
}
