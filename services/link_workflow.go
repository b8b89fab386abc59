package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

const cookieInstructions = "Please login to <https://www.hoyolab.com/>, and write" +
	"```js\njavascript:document.write(document.cookie)```" +
	"in the URL bar. Then copy-paste this text into the input field you can open " +
	"by pressing \"Continue\" below. Furthermore, you must type your in-game UID " +
	"into the designated text input field."

// RunLinkWorkflow はアカウントリンクの対話フローをDM上で進める。
// キャンセル・タイムアウト・想定外の操作は書き込みなしで静かに終了する。
func RunLinkWorkflow(db *gorm.DB, m Messenger, disp *Dispatcher, userID string, timeout time.Duration) {
	session := NewSession(m, disp, userID, timeout)
	if err := session.Open(); err != nil {
		log.Printf("dm open error (user: %s): %v", userID, err)
		return
	}

	// ステップ1: リンク意思の確認
	err := session.PromptButtons("Are you sure you want to link an account?", []Button{
		{CustomID: "cancel", Label: "Cancel", Style: ButtonSecondary},
		{CustomID: "link_account", Label: "Link", Style: ButtonSuccess},
	})
	if err != nil {
		log.Printf("link prompt error (user: %s): %v", userID, err)
		return
	}
	ev, ok := session.AwaitChoice()
	if !ok {
		return
	}
	session.Ack(ev)
	if ev.CustomID != "link_account" {
		return
	}

	// ステップ2: クッキー取得手順の説明
	err = session.PromptButtons(cookieInstructions, []Button{
		{CustomID: "cancel", Label: "Cancel", Style: ButtonSecondary},
		{CustomID: "proceed", Label: "Continue", Style: ButtonSuccess},
	})
	if err != nil {
		log.Printf("link prompt error (user: %s): %v", userID, err)
		return
	}
	ev, ok = session.AwaitChoice()
	if !ok {
		return
	}
	if ev.CustomID != "proceed" {
		session.Ack(ev)
		return
	}

	// ステップ3: UIDとクッキーの入力フォーム（ボタン操作への応答としてモーダルを開く）
	err = session.PromptForm(ev, "Link form", []FormField{
		{CustomID: "genshin_uid", Label: "Genshin UID:", Placeholder: "123456789"},
		{CustomID: "cookie", Label: "HoYoLab Token:", Paragraph: true},
	})
	if err != nil {
		log.Printf("link form error (user: %s): %v", userID, err)
		return
	}
	inputs, ev, ok := session.AwaitInput()
	if !ok {
		return
	}
	session.Ack(ev)

	uid := strings.TrimSpace(inputs["genshin_uid"])
	rawCookie := inputs["cookie"]

	// ステップ4: クッキーの検証と分解。失敗は理由をそのまま伝えて終了する。
	cookie, err := DecomposeCookie(rawCookie)
	if err != nil {
		session.Say(fmt.Sprintf("Could not link account:\n%v", err))
		return
	}

	// ステップ5: 分解結果の最終確認
	summary := fmt.Sprintf(
		"The following account will be linked:\nGenshin UID: `%s`\nHoYoLab cookie:"+
			"```properties\nltuid = %s\nltoken = %s\ncookie_token = %s\naccount_id = %s\nlang = %s\n```",
		uid, cookie.LtUID, cookie.LtToken, cookie.CookieToken, cookie.AccountID, cookie.Lang)
	err = session.PromptButtons(summary, []Button{
		{CustomID: "cancel", Label: "Cancel", Style: ButtonSecondary},
		{CustomID: "proceed", Label: "Link!", Style: ButtonSuccess},
	})
	if err != nil {
		log.Printf("link prompt error (user: %s): %v", userID, err)
		return
	}
	ev, ok = session.AwaitChoice()
	if !ok {
		return
	}
	session.Ack(ev)
	if ev.CustomID != "proceed" {
		return
	}

	// ステップ6: ストアへ反映
	switch err := LinkAccount(db, userID, uid, cookie); {
	case errors.Is(err, ErrAlreadyLinked):
		session.Say(fmt.Sprintf("UID `%s` is already linked to you.", uid))
	case err != nil:
		log.Printf("link error (user: %s, uid: %s): %v", userID, uid, err)
		session.Say("Could not link account. Please try again later.")
	default:
		session.Say("Successfully linked account!")
	}
}
