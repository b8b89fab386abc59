package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// RunUnlinkWorkflow はリンク解除の対話フローをDM上で進める。
// 対象アカウントの削除はリンクの参照カウントに従ってストア側が行う。
func RunUnlinkWorkflow(db *gorm.DB, m Messenger, disp *Dispatcher, userID string, timeout time.Duration) {
	session := NewSession(m, disp, userID, timeout)
	if err := session.Open(); err != nil {
		log.Printf("dm open error (user: %s): %v", userID, err)
		return
	}

	// ステップ1: 解除意思の確認
	err := session.PromptButtons("Are you sure you want to unlink an account?", []Button{
		{CustomID: "cancel", Label: "Cancel", Style: ButtonSecondary},
		{CustomID: "proceed", Label: "Unlink", Style: ButtonSuccess},
	})
	if err != nil {
		log.Printf("unlink prompt error (user: %s): %v", userID, err)
		return
	}
	ev, ok := session.AwaitChoice()
	if !ok {
		return
	}
	session.Ack(ev)
	if ev.CustomID != "proceed" {
		return
	}

	// ステップ2: 解除対象の選択。一覧はこの時点のリンク状態を反映する。
	uids, err := ListAccounts(db, userID)
	if err != nil {
		log.Printf("account list error (user: %s): %v", userID, err)
		session.Say("Could not load your linked accounts.")
		return
	}
	if len(uids) == 0 {
		// 並行する解除に先を越された場合
		session.Say("You have no linked accounts")
		return
	}

	err = session.PromptSelect("Please select an account to unlink", "account", uids)
	if err != nil {
		log.Printf("unlink prompt error (user: %s): %v", userID, err)
		return
	}
	ev, ok = session.AwaitChoice()
	if !ok {
		return
	}
	session.Ack(ev)
	if ev.CustomID != "account" || len(ev.Values) == 0 {
		return
	}
	uid := ev.Values[0]

	// ステップ3: UIDの最終確認
	err = session.PromptButtons(
		fmt.Sprintf("Your account with uid: `%s` will be unlinked. Proceed?", uid),
		[]Button{
			{CustomID: "cancel", Label: "Cancel", Style: ButtonSecondary},
			{CustomID: "proceed", Label: "Unlink!", Style: ButtonSuccess},
		})
	if err != nil {
		log.Printf("unlink prompt error (user: %s): %v", userID, err)
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

	// ステップ4: ストアから削除
	switch err := UnlinkAccount(db, userID, uid); {
	case errors.Is(err, ErrNotLinked):
		session.Say(fmt.Sprintf("UID `%s` is no longer linked to you.", uid))
	case err != nil:
		log.Printf("unlink error (user: %s, uid: %s): %v", userID, uid, err)
		session.Say("Could not unlink account. Please try again later.")
	default:
		session.Say("Successfully unlinked account!")
	}
}
