package services

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// ボタンのスタイル
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonSuccess   = 3
	ButtonDanger    = 4
)

type Button struct {
	CustomID string
	Label    string
	Style    int
}

// FormField はモーダルのテキスト入力の定義
type FormField struct {
	CustomID    string
	Label       string
	Placeholder string
	Paragraph   bool // 複数行入力にするか
}

// Messenger は対話チャネル（Discord）の契約。テストではフェイクに差し替える。
type Messenger interface {
	CreateDM(userID string) (string, error)
	SendButtons(channelID, content string, buttons []Button) (string, error)
	SendSelect(channelID, content, customID string, options []string) (string, error)
	SendMessage(channelID, content string) error
	DeleteMessage(channelID, messageID string) error
	EditOriginal(token, content string) error
}

// DiscordClient は Discord REST API を叩く Messenger の実装
type DiscordClient struct {
	BaseURL string
	Token   string
	AppID   string
}

func NewDiscordClient(cfg Config) *DiscordClient {
	return &DiscordClient{
		BaseURL: "https://discord.com/api/v10",
		Token:   cfg.DiscordBotToken,
		AppID:   cfg.DiscordAppID,
	}
}

func (c *DiscordClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord API error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return fmt.Errorf("discord response parse error: %v", err)
		}
	}
	return nil
}

// CreateDM はユーザーとのDMチャンネルを開いてそのIDを返す
func (c *DiscordClient) CreateDM(userID string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	body := map[string]string{"recipient_id": userID}
	if err := c.do("POST", "/users/@me/channels", body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SendButtons はボタン付きメッセージを送信してメッセージIDを返す
func (c *DiscordClient) SendButtons(channelID, content string, buttons []Button) (string, error) {
	components := make([]map[string]interface{}, 0, len(buttons))
	for _, button := range buttons {
		components = append(components, map[string]interface{}{
			"type":      2,
			"custom_id": button.CustomID,
			"label":     button.Label,
			"style":     button.Style,
		})
	}

	body := map[string]interface{}{
		"content": content,
		"components": []map[string]interface{}{
			{"type": 1, "components": components},
		},
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do("POST", "/channels/"+channelID+"/messages", body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SendSelect はセレクトメニュー付きメッセージを送信してメッセージIDを返す
func (c *DiscordClient) SendSelect(channelID, content, customID string, options []string) (string, error) {
	menuOptions := make([]map[string]string, 0, len(options))
	for _, option := range options {
		menuOptions = append(menuOptions, map[string]string{
			"label": option,
			"value": option,
		})
	}

	body := map[string]interface{}{
		"content": content,
		"components": []map[string]interface{}{
			{
				"type": 1,
				"components": []map[string]interface{}{
					{
						"type":        3,
						"custom_id":   customID,
						"placeholder": "Select UID",
						"options":     menuOptions,
					},
				},
			},
		},
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do("POST", "/channels/"+channelID+"/messages", body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SendMessage はテキストメッセージを送信する
func (c *DiscordClient) SendMessage(channelID, content string) error {
	body := map[string]string{"content": content}
	return c.do("POST", "/channels/"+channelID+"/messages", body, nil)
}

// DeleteMessage はプロンプトのメッセージを削除する（撤回）
func (c *DiscordClient) DeleteMessage(channelID, messageID string) error {
	return c.do("DELETE", "/channels/"+channelID+"/messages/"+messageID, nil, nil)
}

// EditOriginal は遅延応答した元のインタラクション応答を書き換える
func (c *DiscordClient) EditOriginal(token, content string) error {
	body := map[string]string{"content": content}
	return c.do("PATCH", "/webhooks/"+c.AppID+"/"+token+"/messages/@original", body, nil)
}

// NotifyUser はユーザーへDMで通知を届ける関数。
// 失敗してもログに残すだけで呼び出し元のループは止めない前提。
func NotifyUser(m Messenger, userID, content string) error {
	channelID, err := m.CreateDM(userID)
	if err != nil {
		return err
	}
	return m.SendMessage(channelID, content)
}

// RegisterCommands は起動時にスラッシュコマンドを一括登録する関数
func RegisterCommands(c *DiscordClient) error {
	codeOption := []map[string]interface{}{
		{
			"type":        3,
			"name":        "code",
			"description": "Redemption code",
			"required":    true,
		},
	}

	commands := []map[string]interface{}{
		{"name": "accounts", "description": "List your linked accounts"},
		{"name": "link", "description": "Link your HoYoLab account"},
		{"name": "unlink", "description": "Unlink your HoYoLab account"},
		{"name": "claimdaily", "description": "Claim daily login reward"},
		{"name": "claimcode", "description": "Claim code", "options": codeOption},
		{"name": "submitcode", "description": "Submit a redemption code", "options": codeOption},
	}

	return c.do("PUT", "/applications/"+c.AppID+"/commands", commands, nil)
}

// VerifyRequest はDiscordからのリクエストのed25519署名を検証する関数
func VerifyRequest(publicKeyHex, signatureHex, timestamp string, body []byte) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		log.Printf("invalid discord public key")
		return false
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}

	message := append([]byte(timestamp), body...)
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
