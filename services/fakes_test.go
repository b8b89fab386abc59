package services

import (
	"errors"
	"fmt"
	"sync"

	"hoyolab-claim-bot/models"
)

// fakeMessenger はテスト用の Messenger。提示したプロンプトの待ち受けキーを
// チャネルに流すので、テスト側から応答イベントを送り込める。
type fakeMessenger struct {
	mu       sync.Mutex
	counter  int
	prompts  chan string
	messages map[string][]string // channelID → 送信したメッセージ
	deleted  []string
	edits    map[string]string
	failDM   map[string]bool // CreateDM を失敗させるユーザー
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		prompts:  make(chan string, 16),
		messages: map[string][]string{},
		edits:    map[string]string{},
		failDM:   map[string]bool{},
	}
}

func (f *fakeMessenger) CreateDM(userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDM[userID] {
		return "", errors.New("cannot send messages to this user")
	}
	return "dm-" + userID, nil
}

func (f *fakeMessenger) sendPrompt(channelID string) string {
	f.mu.Lock()
	f.counter++
	messageID := fmt.Sprintf("msg-%d", f.counter)
	f.mu.Unlock()
	f.prompts <- PromptKey(channelID, messageID)
	return messageID
}

func (f *fakeMessenger) SendButtons(channelID, content string, buttons []Button) (string, error) {
	return f.sendPrompt(channelID), nil
}

func (f *fakeMessenger) SendSelect(channelID, content, customID string, options []string) (string, error) {
	return f.sendPrompt(channelID), nil
}

func (f *fakeMessenger) SendMessage(channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], content)
	return nil
}

func (f *fakeMessenger) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, PromptKey(channelID, messageID))
	return nil
}

func (f *fakeMessenger) EditOriginal(token, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[token] = content
	return nil
}

func (f *fakeMessenger) sentTo(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages[channelID]...)
}

// fakeHoyo はテスト用の HoyoAPI。uid ごとに失敗を仕込める。
type fakeHoyo struct {
	mu          sync.Mutex
	failUIDs    map[string]error
	dailyCalls  []string
	redeemCalls []string
}

func newFakeHoyo() *fakeHoyo {
	return &fakeHoyo{failUIDs: map[string]error{}}
}

func (f *fakeHoyo) ClaimDaily(cookie models.HoyoCookie, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls = append(f.dailyCalls, uid)
	return f.failUIDs[uid]
}

func (f *fakeHoyo) RedeemCode(cookie models.HoyoCookie, uid, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redeemCalls = append(f.redeemCalls, uid+":"+code)
	return f.failUIDs[uid]
}
