package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InteractionEvent は対話チャネルから届いた1件の操作。
// reply はインタラクションへのインライン応答を1度だけ運ぶ。
type InteractionEvent struct {
	ID       string
	Token    string
	CustomID string
	Values   []string          // セレクトメニューの選択値
	Inputs   map[string]string // モーダルの入力値

	reply chan []byte
	once  sync.Once
}

func NewInteractionEvent(id, token, customID string, values []string, inputs map[string]string) *InteractionEvent {
	return &InteractionEvent{
		ID:       id,
		Token:    token,
		CustomID: customID,
		Values:   values,
		Inputs:   inputs,
		reply:    make(chan []byte, 1),
	}
}

// Reply はこのイベントへのインライン応答を確定する。2回目以降は無視される。
func (ev *InteractionEvent) Reply(payload []byte) {
	ev.once.Do(func() { ev.reply <- payload })
}

// AwaitReply はワークフロー側の応答が確定するまで待つ。
// 時間内に確定しなければ単なるACKを返す（Discordの応答期限があるため）。
func (ev *InteractionEvent) AwaitReply(wait time.Duration) []byte {
	select {
	case payload := <-ev.reply:
		return payload
	case <-time.After(wait):
		return AckUpdate()
	}
}

// AckUpdate は「メッセージはそのまま」のインタラクション応答（DEFERRED_UPDATE_MESSAGE）
func AckUpdate() []byte {
	return []byte(`{"type":6}`)
}

// PromptKey はプロンプトの待ち受けキーを組み立てる関数
func PromptKey(channelID, messageID string) string {
	return channelID + ":" + messageID
}

// Dispatcher はプロンプトごとの待ち受けに、届いたイベントを配送する。
// 待ち受けのないキーへの配送は false（古いプロンプト等）。
type Dispatcher struct {
	mu      sync.Mutex
	waiters map[string]chan *InteractionEvent
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{waiters: map[string]chan *InteractionEvent{}}
}

func (d *Dispatcher) Wait(key string) chan *InteractionEvent {
	ch := make(chan *InteractionEvent, 1)
	d.mu.Lock()
	d.waiters[key] = ch
	d.mu.Unlock()
	return ch
}

func (d *Dispatcher) Dispatch(key string, ev *InteractionEvent) bool {
	d.mu.Lock()
	ch, ok := d.waiters[key]
	if ok {
		delete(d.waiters, key)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	ch <- ev
	return true
}

func (d *Dispatcher) Cancel(key string) {
	d.mu.Lock()
	delete(d.waiters, key)
	d.mu.Unlock()
}

// Session は1ユーザー・1ワークフロー分の対話状態。
// プロンプトを提示して応答かタイムアウトを待ち、次のステップへ進む前に
// 必ず直前のプロンプトを撤回する（古いボタンの二重操作を防ぐ）。
type Session struct {
	m       Messenger
	disp    *Dispatcher
	userID  string
	timeout time.Duration

	channelID  string
	messageID  string
	pendingKey string
	pendingCh  chan *InteractionEvent
}

func NewSession(m Messenger, disp *Dispatcher, userID string, timeout time.Duration) *Session {
	return &Session{m: m, disp: disp, userID: userID, timeout: timeout}
}

// Open はDMチャンネルを開く
func (s *Session) Open() error {
	channelID, err := s.m.CreateDM(s.userID)
	if err != nil {
		return err
	}
	s.channelID = channelID
	return nil
}

func (s *Session) register(messageID string) {
	key := PromptKey(s.channelID, messageID)
	s.messageID = messageID
	s.pendingKey = key
	s.pendingCh = s.disp.Wait(key)
}

// PromptButtons はボタン付きプロンプトを提示して待ち受けを登録する
func (s *Session) PromptButtons(content string, buttons []Button) error {
	messageID, err := s.m.SendButtons(s.channelID, content, buttons)
	if err != nil {
		return err
	}
	s.register(messageID)
	return nil
}

// PromptSelect はセレクトメニューのプロンプトを提示して待ち受けを登録する
func (s *Session) PromptSelect(content, customID string, options []string) error {
	messageID, err := s.m.SendSelect(s.channelID, content, customID, options)
	if err != nil {
		return err
	}
	s.register(messageID)
	return nil
}

// PromptForm はボタン操作への応答としてモーダルを開き、送信の待ち受けを登録する。
// モーダルはインタラクションへの直接応答でしか開けない。
func (s *Session) PromptForm(ev *InteractionEvent, title string, fields []FormField) error {
	key := "form:" + uuid.NewString()

	rows := make([]map[string]interface{}, 0, len(fields))
	for _, field := range fields {
		style := 1
		if field.Paragraph {
			style = 2
		}
		rows = append(rows, map[string]interface{}{
			"type": 1,
			"components": []map[string]interface{}{
				{
					"type":        4,
					"custom_id":   field.CustomID,
					"label":       field.Label,
					"placeholder": field.Placeholder,
					"style":       style,
				},
			},
		})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type": 9,
		"data": map[string]interface{}{
			"custom_id":  key,
			"title":      title,
			"components": rows,
		},
	})
	if err != nil {
		return err
	}

	s.messageID = "" // モーダルに撤回対象のメッセージはない
	s.pendingKey = key
	s.pendingCh = s.disp.Wait(key)
	ev.Reply(payload)
	return nil
}

// AwaitChoice は現在のプロンプトへの操作かタイムアウトを待つ。
// どちらの場合もプロンプトは撤回される。タイムアウトなら false。
func (s *Session) AwaitChoice() (*InteractionEvent, bool) {
	defer s.retract()

	select {
	case ev := <-s.pendingCh:
		return ev, true
	case <-time.After(s.timeout):
		s.disp.Cancel(s.pendingKey)
		return nil, false
	}
}

// AwaitInput はモーダルの送信かタイムアウトを待つ。
// 入力値の妥当性はここでは見ない（呼び出し側ワークフローの責務）。
func (s *Session) AwaitInput() (map[string]string, *InteractionEvent, bool) {
	ev, ok := s.AwaitChoice()
	if !ok {
		return nil, nil, false
	}
	return ev.Inputs, ev, true
}

// Ack は消費したイベントへ「表示はそのまま」のインライン応答を返す
func (s *Session) Ack(ev *InteractionEvent) {
	ev.Reply(AckUpdate())
}

// Say はセッションのDMチャンネルへ結果メッセージを送る
func (s *Session) Say(content string) {
	if err := s.m.SendMessage(s.channelID, content); err != nil {
		log.Printf("dm send error (user: %s): %v", s.userID, err)
	}
}

// retract は直前のプロンプトを削除して古い操作を無効にする
func (s *Session) retract() {
	if s.messageID == "" {
		return
	}
	if err := s.m.DeleteMessage(s.channelID, s.messageID); err != nil {
		log.Printf("prompt delete error (channel: %s): %v", s.channelID, err)
	}
	s.messageID = ""
}
