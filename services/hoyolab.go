package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hoyolab-claim-bot/models"
)

// HoyoAPI は HoYoLAB への遠隔操作の契約。
// 呼び出しは遅い可能性があるためイベント処理の経路では実行しないこと。
type HoyoAPI interface {
	ClaimDaily(cookie models.HoyoCookie, uid string) error
	RedeemCode(cookie models.HoyoCookie, uid, code string) error
}

// HoyoClient は HoYoLAB の公開APIを叩く HoyoAPI の実装
type HoyoClient struct {
	SignBaseURL   string
	RedeemBaseURL string
}

func NewHoyoClient() *HoyoClient {
	return &HoyoClient{
		SignBaseURL:   "https://sg-hk4e-api.hoyolab.com",
		RedeemBaseURL: "https://sg-hk4e-api.hoyoverse.com",
	}
}

// 原神のデイリーチェックインのイベントID
const dailySignActID = "e202102251931481"

type hoyoResponse struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
}

// DecomposeCookie はブラウザから貼り付けられた document.cookie の文字列を
// 必要なフィールドに分解する。必須フィールドが欠けていればエラーを返す。
func DecomposeCookie(raw string) (models.HoyoCookie, error) {
	values := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	for _, field := range []string{"ltuid", "ltoken", "cookie_token", "account_id"} {
		if values[field] == "" {
			return models.HoyoCookie{}, fmt.Errorf("cookie is missing the %s field", field)
		}
	}

	cookie := models.HoyoCookie{
		LtUID:       values["ltuid"],
		LtToken:     values["ltoken"],
		CookieToken: values["cookie_token"],
		AccountID:   values["account_id"],
		Lang:        values["mi18nLang"],
	}
	if cookie.Lang == "" {
		cookie.Lang = "en-us"
	}
	return cookie, nil
}

// クッキーをHTTPヘッダ用の文字列に組み立てる
func cookieHeader(cookie models.HoyoCookie) string {
	return fmt.Sprintf("ltuid=%s; ltoken=%s; cookie_token=%s; account_id=%s; mi18nLang=%s",
		cookie.LtUID, cookie.LtToken, cookie.CookieToken, cookie.AccountID, cookie.Lang)
}

// regionForUID はUIDの先頭桁からサーバーリージョンを判定する関数
func regionForUID(uid string) string {
	switch {
	case strings.HasPrefix(uid, "6"):
		return "os_usa"
	case strings.HasPrefix(uid, "7"):
		return "os_euro"
	case strings.HasPrefix(uid, "8"):
		return "os_asia"
	case strings.HasPrefix(uid, "9"):
		return "os_cht"
	default:
		return "os_euro"
	}
}

// ClaimDaily はデイリーチェックイン報酬を受け取る
func (c *HoyoClient) ClaimDaily(cookie models.HoyoCookie, uid string) error {
	body := map[string]string{"act_id": dailySignActID}
	jsonData, _ := json.Marshal(body)

	req, err := http.NewRequest("POST", c.SignBaseURL+"/event/sol/sign?lang="+cookie.Lang, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Cookie", cookieHeader(cookie))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeHoyoResponse(resp)
}

// RedeemCode はプロモーションコードを引き換える
func (c *HoyoClient) RedeemCode(cookie models.HoyoCookie, uid, code string) error {
	url := fmt.Sprintf("%s/common/apicdkey/api/webExchangeCdkey?uid=%s&region=%s&cdkey=%s&game_biz=hk4e_global&lang=%s",
		c.RedeemBaseURL, uid, regionForUID(uid), code, cookie.Lang)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cookie", cookieHeader(cookie))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeHoyoResponse(resp)
}

func decodeHoyoResponse(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var result hoyoResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return fmt.Errorf("hoyolab response parse error: %v", err)
	}

	if result.Retcode != 0 {
		return fmt.Errorf("hoyolab error (retcode %d): %s", result.Retcode, result.Message)
	}
	return nil
}
