package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hoyolab-claim-bot/services"
)

// インタラクションの種別
const (
	interactionPing        = 1
	interactionCommand     = 2
	interactionComponent   = 3
	interactionModalSubmit = 5
)

// ワークフローがインライン応答を確定するのを待つ上限。
// Discordの応答期限（3秒）より短くしておく。
const replyWait = 2 * time.Second

// Interaction はDiscordから届くインタラクションのペイロード
type Interaction struct {
	Type      int    `json:"type"`
	ID        string `json:"id"`
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	Data      struct {
		Name     string   `json:"name"`
		CustomID string   `json:"custom_id"`
		Values   []string `json:"values"`
		Options  []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
		Components []struct {
			Components []struct {
				CustomID string `json:"custom_id"`
				Value    string `json:"value"`
			} `json:"components"`
		} `json:"components"`
	} `json:"data"`
	Message struct {
		ID string `json:"id"`
	} `json:"message"`
	Member *struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"member"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// userID はDMとサーバー内のどちらから来たかによって置き場所が違う
func (i *Interaction) userID() string {
	if i.Member != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// HandleInteraction はDiscordのインタラクションエンドポイントを処理するハンドラ
func HandleInteraction(db *gorm.DB, m services.Messenger, api services.HoyoAPI, disp *services.Dispatcher, cfg services.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		// 署名を検証
		if !services.VerifyRequest(cfg.DiscordPublicKey,
			c.GetHeader("X-Signature-Ed25519"),
			c.GetHeader("X-Signature-Timestamp"), body) {
			log.Println("invalid discord signature")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request signature"})
			return
		}

		var interaction Interaction
		if err := json.Unmarshal(body, &interaction); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		switch interaction.Type {
		case interactionPing:
			c.JSON(http.StatusOK, gin.H{"type": 1})
		case interactionCommand:
			handleCommand(c, db, m, api, disp, cfg, &interaction)
		case interactionComponent, interactionModalSubmit:
			handleEvent(c, disp, &interaction)
		default:
			c.Status(http.StatusOK)
		}
	}
}

// handleEvent はボタン・セレクト・モーダルのイベントを待ち受け中のセッションへ配送する
func handleEvent(c *gin.Context, disp *services.Dispatcher, interaction *Interaction) {
	var key string
	var inputs map[string]string

	if interaction.Type == interactionModalSubmit {
		key = interaction.Data.CustomID
		inputs = map[string]string{}
		for _, row := range interaction.Data.Components {
			for _, component := range row.Components {
				inputs[component.CustomID] = component.Value
			}
		}
	} else {
		key = services.PromptKey(interaction.ChannelID, interaction.Message.ID)
	}

	ev := services.NewInteractionEvent(interaction.ID, interaction.Token,
		interaction.Data.CustomID, interaction.Data.Values, inputs)

	if !disp.Dispatch(key, ev) {
		// 待ち受けのないイベント（撤回済みプロンプト等）はキャンセル扱いでACKだけ返す
		c.Data(http.StatusOK, "application/json", services.AckUpdate())
		return
	}

	c.Data(http.StatusOK, "application/json", ev.AwaitReply(replyWait))
}

// handleCommand はスラッシュコマンドを処理する。重いリモート呼び出しと
// 対話フローはgoroutineで切り離し、応答期限内にインライン応答を返す。
func handleCommand(c *gin.Context, db *gorm.DB, m services.Messenger, api services.HoyoAPI, disp *services.Dispatcher, cfg services.Config, interaction *Interaction) {
	userID := interaction.userID()
	if userID == "" {
		respond(c, "Could not identify you.")
		return
	}

	log.Printf("command received: name=%s, user=%s", interaction.Data.Name, userID)

	switch interaction.Data.Name {
	case "accounts":
		uids, err := services.ListAccounts(db, userID)
		if err != nil {
			log.Printf("account list error (user: %s): %v", userID, err)
			respond(c, "Could not load your linked accounts.")
			return
		}
		if len(uids) == 0 {
			respond(c, "You have no linked accounts")
			return
		}
		respond(c, "**These are your linked accounts:**\n"+strings.Join(uids, "\n"))

	case "link":
		respond(c, "Check your DMs to continue linking an account.")
		go services.RunLinkWorkflow(db, m, disp, userID, cfg.SessionTimeout)

	case "unlink":
		if !hasLinkedAccounts(c, db, userID) {
			return
		}
		respond(c, "Check your DMs to continue unlinking an account.")
		go services.RunUnlinkWorkflow(db, m, disp, userID, cfg.SessionTimeout)

	case "claimdaily":
		if !hasLinkedAccounts(c, db, userID) {
			return
		}
		respondDeferred(c)
		token := interaction.Token
		go func() {
			lines := services.ClaimDailyForUser(db, api, userID)
			if err := m.EditOriginal(token, strings.Join(lines, "\n")); err != nil {
				log.Printf("response edit error (user: %s): %v", userID, err)
			}
		}()

	case "claimcode":
		code := commandOption(interaction, "code")
		if code == "" {
			respond(c, "A redemption code is required.")
			return
		}
		if !hasLinkedAccounts(c, db, userID) {
			return
		}
		respondDeferred(c)
		token := interaction.Token
		go func() {
			lines := services.RedeemCodeForUser(db, api, userID, code)
			if err := m.EditOriginal(token, strings.Join(lines, "\n")); err != nil {
				log.Printf("response edit error (user: %s): %v", userID, err)
			}
		}()

	case "submitcode":
		code := commandOption(interaction, "code")
		if code == "" {
			respond(c, "A redemption code is required.")
			return
		}
		count, err := services.CountLinks(db, userID)
		if err != nil {
			log.Printf("link count error (user: %s): %v", userID, err)
			respond(c, "Could not load your linked accounts.")
			return
		}
		if count == 0 {
			respond(c, "You may only submit redemption codes if you have at least one linked account.")
			return
		}

		switch err := services.SubmitCode(db, code); {
		case errors.Is(err, services.ErrDuplicateCode):
			respond(c, fmt.Sprintf("Code %s already exists in the system.", code))
		case err != nil:
			log.Printf("code submit error (code: %s): %v", code, err)
			respond(c, fmt.Sprintf("Error submitting code `%s`.", code))
		default:
			respond(c, fmt.Sprintf("Submitted code %s!", code))
			go services.BroadcastCode(db, m, api, code)
		}

	default:
		c.Status(http.StatusOK)
	}
}

// hasLinkedAccounts はリンク数の事前チェック。0件ならその場で応答する。
func hasLinkedAccounts(c *gin.Context, db *gorm.DB, userID string) bool {
	count, err := services.CountLinks(db, userID)
	if err != nil {
		log.Printf("link count error (user: %s): %v", userID, err)
		respond(c, "Could not load your linked accounts.")
		return false
	}
	if count == 0 {
		respond(c, "You have no linked accounts")
		return false
	}
	return true
}

// respond はコマンドへのインライン応答（CHANNEL_MESSAGE_WITH_SOURCE）
func respond(c *gin.Context, content string) {
	c.JSON(http.StatusOK, gin.H{"type": 4, "data": gin.H{"content": content}})
}

// respondDeferred は遅延応答。結果は後から EditOriginal で書き込む。
func respondDeferred(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"type": 5})
}

func commandOption(interaction *Interaction, name string) string {
	for _, option := range interaction.Data.Options {
		if option.Name == name {
			return option.Value
		}
	}
	return ""
}
