package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hoyolab-claim-bot/models"
)

// LinkedAccount は1ユーザーのリンク済みアカウントとそのクッキーの組
type LinkedAccount struct {
	GenshinUID string
	Cookie     models.HoyoCookie
}

// AutoClaimAccount はコード自動受け取りが有効なアカウントと、
// そこにリンクしている全DiscordユーザーのID
type AutoClaimAccount struct {
	GenshinUID string
	Cookie     models.HoyoCookie
	DiscordIDs []string
}

// ListAccounts はユーザーにリンクされている原神UIDの一覧を返す関数
func ListAccounts(db *gorm.DB, discordID string) ([]string, error) {
	var uids []string
	err := db.Model(&models.AccountLink{}).
		Where("discord_id = ?", discordID).
		Order("genshin_uid").
		Pluck("genshin_uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// CountLinks はユーザーのリンク数を返す関数
func CountLinks(db *gorm.DB, discordID string) (int64, error) {
	var count int64
	err := db.Model(&models.AccountLink{}).
		Where("discord_id = ?", discordID).
		Count(&count).Error
	return count, err
}

// LinkAccount はユーザーと原神アカウントのリンクを作成する。
// UIDが初めてリンクされる場合は GameAccount と HoyoCookie も同じ
// トランザクション内で作成する。既にリンク済みなら ErrAlreadyLinked。
func LinkAccount(db *gorm.DB, discordID, uid string, cookie models.HoyoCookie) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var linked int64
		if err := tx.Model(&models.AccountLink{}).
			Where("discord_id = ? AND genshin_uid = ?", discordID, uid).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked > 0 {
			return ErrAlreadyLinked
		}

		var existing int64
		if err := tx.Model(&models.GameAccount{}).
			Where("genshin_uid = ?", uid).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			account := models.GameAccount{GenshinUID: uid, AutoClaimCodes: true}
			if err := tx.Create(&account).Error; err != nil {
				return ErrConflict
			}

			cookie.ID = uuid.NewString()
			cookie.GenshinUID = uid
			if err := tx.Create(&cookie).Error; err != nil {
				return ErrConflict
			}
		}

		link := models.AccountLink{
			ID:         uuid.NewString(),
			DiscordID:  discordID,
			GenshinUID: uid,
		}
		if err := tx.Create(&link).Error; err != nil {
			return ErrConflict
		}
		return nil
	})
}

// UnlinkAccount はユーザーと原神アカウントのリンクを削除する。
// 同じUIDへのリンクが残っていなければ、クッキーとアカウントも
// 同じトランザクション内で削除する（参照カウントの不変条件）。
func UnlinkAccount(db *gorm.DB, discordID, uid string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("discord_id = ? AND genshin_uid = ?", discordID, uid).
			Delete(&models.AccountLink{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotLinked
		}

		var remaining int64
		if err := tx.Model(&models.AccountLink{}).
			Where("genshin_uid = ?", uid).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Where("genshin_uid = ?", uid).
				Delete(&models.HoyoCookie{}).Error; err != nil {
				return err
			}
			if err := tx.Where("genshin_uid = ?", uid).
				Delete(&models.GameAccount{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LinkedAccounts はユーザーのリンク済みアカウントをクッキー付きで返す関数
func LinkedAccounts(db *gorm.DB, discordID string) ([]LinkedAccount, error) {
	uids, err := ListAccounts(db, discordID)
	if err != nil {
		return nil, err
	}

	accounts := make([]LinkedAccount, 0, len(uids))
	for _, uid := range uids {
		var cookie models.HoyoCookie
		if err := db.Where("genshin_uid = ?", uid).First(&cookie).Error; err != nil {
			return nil, err
		}
		accounts = append(accounts, LinkedAccount{GenshinUID: uid, Cookie: cookie})
	}
	return accounts, nil
}

// AutoClaimAccounts はコード自動受け取りが有効な全アカウントを、
// クッキーとリンク先ユーザーのID一覧付きで返す関数
func AutoClaimAccounts(db *gorm.DB) ([]AutoClaimAccount, error) {
	var gameAccounts []models.GameAccount
	if err := db.Where("auto_claim_codes = ?", true).
		Order("genshin_uid").
		Find(&gameAccounts).Error; err != nil {
		return nil, err
	}

	accounts := make([]AutoClaimAccount, 0, len(gameAccounts))
	for _, account := range gameAccounts {
		var cookie models.HoyoCookie
		if err := db.Where("genshin_uid = ?", account.GenshinUID).
			First(&cookie).Error; err != nil {
			return nil, err
		}

		var discordIDs []string
		if err := db.Model(&models.AccountLink{}).
			Where("genshin_uid = ?", account.GenshinUID).
			Order("discord_id").
			Pluck("discord_id", &discordIDs).Error; err != nil {
			return nil, err
		}

		accounts = append(accounts, AutoClaimAccount{
			GenshinUID: account.GenshinUID,
			Cookie:     cookie,
			DiscordIDs: discordIDs,
		})
	}
	return accounts, nil
}

// SubmitCode はプロモーションコードを登録する。登録済みなら ErrDuplicateCode。
func SubmitCode(db *gorm.DB, code string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RedemptionCode{}).
			Where("code = ?", code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateCode
		}

		if err := tx.Create(&models.RedemptionCode{Code: code}).Error; err != nil {
			return ErrConflict
		}
		return nil
	})
}
