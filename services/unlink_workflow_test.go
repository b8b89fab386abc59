package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptUnlinkSteps はリンク解除フローの各プロンプトに順に応答していくドライバ
func scriptUnlinkSteps(disp *Dispatcher, fake *fakeMessenger, uid string) {
	go func() {
		// ステップ1: 解除意思の確認
		key := <-fake.prompts
		disp.Dispatch(key, NewInteractionEvent("i1", "t1", "proceed", nil, nil))

		// ステップ2: 解除対象の選択
		key = <-fake.prompts
		disp.Dispatch(key, NewInteractionEvent("i2", "t2", "account", []string{uid}, nil))

		// ステップ3: 最終確認
		key = <-fake.prompts
		disp.Dispatch(key, NewInteractionEvent("i3", "t3", "proceed", nil, nil))
	}()
}

func TestRunUnlinkWorkflow_SharedAccountSurvives(t *testing.T) {
	db := setupStoreTestDB(t)
	disp := NewDispatcher()
	fake := newFakeMessenger()

	assert.NoError(t, LinkAccount(db, "user-a", "700000002", testCookie()))
	assert.NoError(t, LinkAccount(db, "user-b", "700000002", testCookie()))

	scriptUnlinkSteps(disp, fake, "700000002")
	RunUnlinkWorkflow(db, fake, disp, "user-a", time.Second)

	// user-a のリンクは消えるが、user-b が残っているのでアカウントは存続する
	count, err := CountLinks(db, "user-a")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assertAccountExists(t, db, "700000002", true)
	assert.Contains(t, fake.sentTo("dm-user-a"), "Successfully unlinked account!")
}

func TestRunUnlinkWorkflow_LastLinkDeletesAccount(t *testing.T) {
	db := setupStoreTestDB(t)
	disp := NewDispatcher()
	fake := newFakeMessenger()

	assert.NoError(t, LinkAccount(db, "user-a", "700000001", testCookie()))

	scriptUnlinkSteps(disp, fake, "700000001")
	RunUnlinkWorkflow(db, fake, disp, "user-a", time.Second)

	assertAccountExists(t, db, "700000001", false)
}

func TestRunUnlinkWorkflow_UnknownChoiceStopsSilently(t *testing.T) {
	db := setupStoreTestDB(t)
	disp := NewDispatcher()
	fake := newFakeMessenger()

	assert.NoError(t, LinkAccount(db, "user-a", "700000001", testCookie()))

	go func() {
		key := <-fake.prompts
		disp.Dispatch(key, NewInteractionEvent("i1", "t1", "proceed", nil, nil))

		// 選択ステップに想定外の custom_id が届いた場合はキャンセル扱い
		key = <-fake.prompts
		disp.Dispatch(key, NewInteractionEvent("i2", "t2", "forged_button", nil, nil))
	}()

	RunUnlinkWorkflow(db, fake, disp, "user-a", time.Second)

	count, err := CountLinks(db, "user-a")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRunUnlinkWorkflow_RaceWithConcurrentUnlink(t *testing.T) {
	db := setupStoreTestDB(t)
	disp := NewDispatcher()
	fake := newFakeMessenger()

	assert.NoError(t, LinkAccount(db, "user-a", "700000001", testCookie()))

	go func() {
		key := <-fake.prompts

		// 確認と選択の間に別経路でリンクが消えた場合
		assert.NoError(t, UnlinkAccount(db, "user-a", "700000001"))
		disp.Dispatch(key, NewInteractionEvent("i1", "t1", "proceed", nil, nil))
	}()

	RunUnlinkWorkflow(db, fake, disp, "user-a", time.Second)

	// 選択肢が空なのでフローはそこで終わる
	assert.Contains(t, fake.sentTo("dm-user-a"), "You have no linked accounts")
	assertAccountExists(t, db, "700000001", false)
}
